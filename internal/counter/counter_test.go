package counter

import (
	"fmt"
	"testing"

	"pos-backend/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate hatası: %v", err)
	}
	database.DB = db
	return db
}

func next(t *testing.T, db *gorm.DB, name string) uint64 {
	t.Helper()
	var got uint64
	err := db.Transaction(func(tx *gorm.DB) error {
		v, err := Next(tx, name)
		got = v
		return err
	})
	if err != nil {
		t.Fatalf("sayaç ilerletilemedi (%s): %v", name, err)
	}
	return got
}

func TestCounterSeeds(t *testing.T) {
	db := setupTestDB(t)

	cases := []struct {
		name string
		want uint64
	}{
		{SaleInvoice, 1},
		{ItemCode, 101},
		{CustomerID, 1001},
		{VendorID, 2001},
		{CategoryID, 1},
	}
	for _, tc := range cases {
		if got := next(t, db, tc.name); got != tc.want {
			t.Errorf("%s ilk değeri %d olmalı, geldi: %d", tc.name, tc.want, got)
		}
	}
}

func TestCounterMonotonic(t *testing.T) {
	db := setupTestDB(t)

	prev := next(t, db, SaleInvoice)
	for i := 0; i < 10; i++ {
		got := next(t, db, SaleInvoice)
		if got != prev+1 {
			t.Fatalf("sayaç atladı: %d sonrası %d geldi", prev, got)
		}
		prev = got
	}
}

func TestCounterRollbackDoesNotAdvance(t *testing.T) {
	db := setupTestDB(t)

	first := next(t, db, SaleInvoice)

	// Başarısız transaction sayaç artışını da geri alır
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := Next(tx, SaleInvoice); err != nil {
			return err
		}
		return fmt.Errorf("bilerek iptal")
	})
	if err == nil {
		t.Fatal("transaction'ın iptal olması beklenirdi")
	}

	if got := next(t, db, SaleInvoice); got != first+1 {
		t.Errorf("iptal edilen artış kalıcı olmamalı: %d sonrası %d geldi", first, got)
	}
}
