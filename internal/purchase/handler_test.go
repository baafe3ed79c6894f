package purchase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
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

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Post("/api/purchases", CreatePurchaseHandler())
	app.Get("/api/purchases", ListPurchasesHandler())
	app.Put("/api/purchases/:id", UpdatePurchaseHandler())
	app.Delete("/api/purchases/:id", DeletePurchaseHandler())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("istek gövdesi kodlanamadı: %v", err)
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("istek oluşturulamadı: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func seedVendorAndItem(t *testing.T, db *gorm.DB) (models.Vendor, models.Item) {
	t.Helper()
	vendor := models.Vendor{VendorID: 2001, Name: "Toptancı A", Phone: "555", Type: models.PartyCredit, CreditLimit: 50000}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("tedarikçi eklenemedi: %v", err)
	}
	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", PurchasePrice: 10, SellPrice: 15, Stock: 5}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}
	return vendor, item
}

func TestCreatePurchaseIncrementsStock(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	vendor, item := seedVendorAndItem(t, db)

	resp, raw := doJSON(t, app, "POST", "/api/purchases", CreatePurchaseRequest{
		VendorID:     vendor.ID,
		PurchaseDate: "2026-08-15",
		Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 20, UnitCost: 9}},
		Discount:     10,
		Freight:      30,
		AmountPaid:   100,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}

	var got PurchaseResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	// 20*9 = 180; net = 180 - 10 + 30 = 200; bakiye = 200 - 100 = 100
	if got.Subtotal != 180 || got.NetTotal != 200 || got.Balance != 100 {
		t.Errorf("tutarlar yanlış: subtotal=%v net=%v balance=%v", got.Subtotal, got.NetTotal, got.Balance)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 25 {
		t.Errorf("stok 25 olmalı, geldi: %v", fresh.Stock)
	}

	var freshVendor models.Vendor
	if err := db.First(&freshVendor, "id = ?", vendor.ID).Error; err != nil {
		t.Fatalf("tedarikçi okunamadı: %v", err)
	}
	if freshVendor.Balance != 100 {
		t.Errorf("tedarikçi bakiyesi 100 olmalı, geldi: %v", freshVendor.Balance)
	}
}

func TestUpdatePurchaseReversesOldStock(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	vendor, item := seedVendorAndItem(t, db)

	resp, raw := doJSON(t, app, "POST", "/api/purchases", CreatePurchaseRequest{
		VendorID:     vendor.ID,
		PurchaseDate: "2026-08-15",
		Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 20, UnitCost: 9}},
		AmountPaid:   180,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}
	var created PurchaseResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	// 20 yerine 8 adet: stok 5 + 20 = 25 iken 5 + 8 = 13 olmalı
	resp, raw = doJSON(t, app, "PUT", fmt.Sprintf("/api/purchases/%d", created.ID), CreatePurchaseRequest{
		VendorID:     vendor.ID,
		PurchaseDate: "2026-08-15",
		Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 8, UnitCost: 9}},
		AmountPaid:   72,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 13 {
		t.Errorf("stok 13 olmalı, geldi: %v", fresh.Stock)
	}

	var count int64
	db.Model(&models.PurchaseItem{}).Where("purchase_id = ?", created.ID).Count(&count)
	if count != 1 {
		t.Errorf("eski kalemler silinip yenisi yazılmalı, %d kalem var", count)
	}
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	vendor, item := seedVendorAndItem(t, db)

	resp, raw := doJSON(t, app, "POST", "/api/purchases", CreatePurchaseRequest{
		VendorID:     vendor.ID,
		PurchaseDate: "2026-08-15",
		Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 20, UnitCost: 9}},
		AmountPaid:   180,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}
	var created PurchaseResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/purchases/%d", created.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirdi, geldi: %d", resp.StatusCode)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 5 {
		t.Errorf("silinen alışla stok 5'e dönmeli, geldi: %v", fresh.Stock)
	}

	var count int64
	db.Model(&models.Purchase{}).Count(&count)
	if count != 0 {
		t.Errorf("alış kaydı silinmeli, %d kayıt var", count)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	vendor, item := seedVendorAndItem(t, db)

	cases := []struct {
		name string
		req  CreatePurchaseRequest
	}{
		{"tedarikçisiz", CreatePurchaseRequest{
			PurchaseDate: "2026-08-15",
			Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 1, UnitCost: 9}},
		}},
		{"kalemsiz", CreatePurchaseRequest{VendorID: vendor.ID, PurchaseDate: "2026-08-15"}},
		{"geçersiz tarih", CreatePurchaseRequest{
			VendorID:     vendor.ID,
			PurchaseDate: "15.08.2026",
			Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 1, UnitCost: 9}},
		}},
		{"sıfır miktar", CreatePurchaseRequest{
			VendorID:     vendor.ID,
			PurchaseDate: "2026-08-15",
			Items:        []PurchaseLineRequest{{ItemID: item.ID, Quantity: 0, UnitCost: 9}},
		}},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, app, "POST", "/api/purchases", tc.req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s: 400 beklenirdi, geldi: %d", tc.name, resp.StatusCode)
		}
	}
}
