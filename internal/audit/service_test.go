package audit

import (
	"encoding/json"
	"fmt"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

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

func TestWriteLogSerializesSnapshots(t *testing.T) {
	db := setupTestDB(t)

	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", SellPrice: 15}
	if err := WriteLog(LogOptions{
		UserID: 1, UserName: "Patron",
		EntityType: "item", EntityID: 9,
		Action:      models.AuditActionCreate,
		Description: "Ürün eklendi: Cola (kod 101)",
		After:       item,
	}); err != nil {
		t.Fatalf("log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if log.BeforeData != "null" {
		t.Errorf("before 'null' olmalı, geldi: %q", log.BeforeData)
	}

	var after models.Item
	if err := json.Unmarshal([]byte(log.AfterData), &after); err != nil {
		t.Fatalf("after çözümlenemedi: %v", err)
	}
	if after.Name != "Cola" || after.Code != 101 {
		t.Errorf("after yanlış: %+v", after)
	}
}

func TestUndoUpdateRestoresEntity(t *testing.T) {
	db := setupTestDB(t)

	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", SellPrice: 15}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}
	before := item

	item.Name = "Cola Zero"
	item.SellPrice = 18
	if err := db.Save(&item).Error; err != nil {
		t.Fatalf("ürün güncellenemedi: %v", err)
	}
	if err := WriteLog(LogOptions{
		UserID: 1, UserName: "Patron",
		EntityType: "item", EntityID: item.ID,
		Action: models.AuditActionUpdate,
		Before: before, After: item,
	}); err != nil {
		t.Fatalf("log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}

	if err := UndoLog(log.ID, 1, "Patron"); err != nil {
		t.Fatalf("undo başarısız: %v", err)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Name != "Cola" || fresh.SellPrice != 15 {
		t.Errorf("undo önceki hali geri getirmeli, geldi: %+v", fresh)
	}

	// Undo'nun kendisi de loglanır, orijinal log işaretlenir
	var logs []models.AuditLog
	db.Order("id asc").Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("2 log beklenirdi, geldi: %d", len(logs))
	}
	if !logs[0].IsUndone {
		t.Error("orijinal log is_undone olmalı")
	}
	if logs[1].Action != models.AuditActionUndo {
		t.Errorf("ikinci log undo olmalı, geldi: %s", logs[1].Action)
	}
}

func TestUndoDeleteRecreatesEntity(t *testing.T) {
	db := setupTestDB(t)

	customer := models.Customer{CustomerID: 1001, Name: "Ali", Phone: "555", Type: models.PartyCash}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("müşteri eklenemedi: %v", err)
	}
	if err := WriteLog(LogOptions{
		UserID: 1, UserName: "Patron",
		EntityType: "customer", EntityID: customer.ID,
		Action: models.AuditActionDelete,
		Before: customer,
	}); err != nil {
		t.Fatalf("log yazılamadı: %v", err)
	}
	if err := db.Delete(&models.Customer{}, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("müşteri silinemedi: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Patron"); err != nil {
		t.Fatalf("undo başarısız: %v", err)
	}

	var fresh models.Customer
	if err := db.Where("customer_id = ?", 1001).First(&fresh).Error; err != nil {
		t.Fatalf("müşteri geri oluşturulmalıydı: %v", err)
	}
	if fresh.Name != "Ali" {
		t.Errorf("müşteri adı korunmalı, geldi: %q", fresh.Name)
	}
}

func TestUndoRejectsStockDocuments(t *testing.T) {
	db := setupTestDB(t)

	if err := WriteLog(LogOptions{
		UserID: 1, UserName: "Patron",
		EntityType: "sale", EntityID: 1,
		Action: models.AuditActionCreate,
	}); err != nil {
		t.Fatalf("log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Patron"); err == nil {
		t.Fatal("satış logu geri alınamamalı")
	}
}

func TestUndoTwiceRejected(t *testing.T) {
	db := setupTestDB(t)

	category := models.Category{CategoryID: 1, Name: "İçecek"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("kategori eklenemedi: %v", err)
	}
	if err := WriteLog(LogOptions{
		UserID: 1, UserName: "Patron",
		EntityType: "category", EntityID: category.ID,
		Action: models.AuditActionCreate,
		After:  category,
	}); err != nil {
		t.Fatalf("log yazılamadı: %v", err)
	}

	var log models.AuditLog
	if err := db.First(&log).Error; err != nil {
		t.Fatalf("log okunamadı: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Patron"); err != nil {
		t.Fatalf("ilk undo başarısız: %v", err)
	}
	if err := UndoLog(log.ID, 1, "Patron"); err == nil {
		t.Fatal("aynı log ikinci kez geri alınamamalı")
	}
}
