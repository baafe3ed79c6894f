package returns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

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
	app.Post("/api/sale-returns", CreateSaleReturnHandler())
	app.Get("/api/sale-returns", ListSaleReturnsHandler())
	app.Post("/api/purchase-returns", CreatePurchaseReturnHandler())
	app.Get("/api/purchase-returns", ListPurchaseReturnsHandler())
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

// 10 adetlik stoktan 4 adet Cola satışı; 2 adedi iade edilecek
func seedSale(t *testing.T, db *gorm.DB) (models.Item, models.Sale) {
	t.Helper()
	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", PurchasePrice: 10, SellPrice: 15, Stock: 6}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}

	sale := models.Sale{
		InvoiceNo:    1,
		ReceiptID:    "test-receipt-1",
		CustomerName: "Walk-in",
		CustomerType: models.PartyCash,
		SaleDate:     time.Now(),
		Items: []models.SaleItem{{
			ItemID: item.ID, ItemCode: item.Code, Name: item.Name,
			Quantity: 4, Price: 15, Amount: 60,
		}},
		Subtotal:      60,
		Total:         60,
		PaymentMethod: models.PaymentCash,
		Status:        "completed",
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("satış eklenemedi: %v", err)
	}
	return item, sale
}

func TestSaleReturnRestoresStock(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	item, sale := seedSale(t, db)

	resp, raw := doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 2}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}

	var got SaleReturnResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if got.ReturnTotal != 30 {
		t.Errorf("iade tutarı 2*15=30 olmalı, geldi: %v", got.ReturnTotal)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 8 {
		t.Errorf("stok 6+2=8 olmalı, geldi: %v", fresh.Stock)
	}
}

func TestSaleReturnRejectsOverReturn(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	item, sale := seedSale(t, db)

	resp, raw := doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 5}},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("satılandan fazla iade 400 olmalı, geldi: %d (%s)", resp.StatusCode, raw)
	}
}

func TestSaleReturnTracksPreviousReturns(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	item, sale := seedSale(t, db)

	resp, _ := doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("ilk iade 201 olmalı, geldi: %d", resp.StatusCode)
	}

	// 4 satıldı, 3 iade edildi; 2 tane daha iade edilemez
	resp, _ = doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 2}},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("kalan miktarı aşan iade 400 olmalı, geldi: %d", resp.StatusCode)
	}

	// kalan 1 tane iade edilebilir
	resp, _ = doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("kalan miktar iade edilebilmeli, geldi: %d", resp.StatusCode)
	}
}

func TestSaleReturnReducesCreditBalance(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()

	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", SellPrice: 15, Stock: 6}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}
	customer := models.Customer{CustomerID: 1001, Name: "Ali", Phone: "555", Type: models.PartyCredit, CreditLimit: 5000, Balance: 100}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("müşteri eklenemedi: %v", err)
	}
	sale := models.Sale{
		InvoiceNo: 1, ReceiptID: "test-receipt-2",
		CustomerID: &customer.ID, CustomerName: customer.Name, CustomerType: models.PartyCredit,
		SaleDate: time.Now(),
		Items: []models.SaleItem{{
			ItemID: item.ID, ItemCode: item.Code, Name: item.Name, Quantity: 4, Price: 15, Amount: 60,
		}},
		Subtotal: 60, Total: 60, PaymentMethod: models.PaymentCard, Status: "completed",
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("satış eklenemedi: %v", err)
	}

	resp, _ := doJSON(t, app, "POST", "/api/sale-returns", CreateSaleReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ReturnLineRequest{{ItemID: item.ID, Quantity: 2}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d", resp.StatusCode)
	}

	var fresh models.Customer
	if err := db.First(&fresh, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("müşteri okunamadı: %v", err)
	}
	if fresh.Balance != 70 {
		t.Errorf("bakiye 100-30=70 olmalı, geldi: %v", fresh.Balance)
	}

	var txn models.BalanceTransaction
	if err := db.Where("customer_id = ?", customer.ID).First(&txn).Error; err != nil {
		t.Fatalf("bakiye hareketi bulunamadı: %v", err)
	}
	if txn.Type != models.BalanceTxnSaleReturn || txn.Amount != -30 {
		t.Errorf("hareket SaleReturn/-30 olmalı, geldi: %s/%v", txn.Type, txn.Amount)
	}
}

func seedPurchase(t *testing.T, db *gorm.DB, stock float64) (models.Item, models.Purchase) {
	t.Helper()
	vendor := models.Vendor{VendorID: 2001, Name: "Toptancı A", Phone: "555", Type: models.PartyCredit, CreditLimit: 50000, Balance: 200}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("tedarikçi eklenemedi: %v", err)
	}
	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", PurchasePrice: 9, SellPrice: 15, Stock: stock}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}
	purchase := models.Purchase{
		VendorID: vendor.ID, PurchaseDate: time.Now(),
		Items: []models.PurchaseItem{{
			ItemID: item.ID, ItemCode: item.Code, Name: item.Name, Quantity: 10, UnitCost: 9, Subtotal: 90,
		}},
		Subtotal: 90, NetTotal: 90, AmountPaid: 0, Balance: 90,
	}
	if err := db.Create(&purchase).Error; err != nil {
		t.Fatalf("alış eklenemedi: %v", err)
	}
	return item, purchase
}

func TestPurchaseReturnDecrementsStock(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	item, purchase := seedPurchase(t, db, 10)

	resp, raw := doJSON(t, app, "POST", "/api/purchase-returns", CreatePurchaseReturnRequest{
		PurchaseID: purchase.ID,
		Items:      []ReturnLineRequest{{ItemID: item.ID, Quantity: 4}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d (%s)", resp.StatusCode, raw)
	}

	var got PurchaseReturnResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if got.RefundTotal != 36 {
		t.Errorf("iade tutarı 4*9=36 olmalı, geldi: %v", got.RefundTotal)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 6 {
		t.Errorf("stok 10-4=6 olmalı, geldi: %v", fresh.Stock)
	}
}

func TestPurchaseReturnClampsStockAtZero(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	// alınan 10 adedin 7'si satılmış: stokta 3 kaldı
	item, purchase := seedPurchase(t, db, 3)

	resp, _ := doJSON(t, app, "POST", "/api/purchase-returns", CreatePurchaseReturnRequest{
		PurchaseID: purchase.ID,
		Items:      []ReturnLineRequest{{ItemID: item.ID, Quantity: 5}},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirdi, geldi: %d", resp.StatusCode)
	}

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if fresh.Stock != 0 {
		t.Errorf("stok sıfırda kalmalı, eksiye düşmemeli; geldi: %v", fresh.Stock)
	}
}

func TestPurchaseReturnRejectsOverReturn(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp()
	item, purchase := seedPurchase(t, db, 10)

	resp, _ := doJSON(t, app, "POST", "/api/purchase-returns", CreatePurchaseReturnRequest{
		PurchaseID: purchase.ID,
		Items:      []ReturnLineRequest{{ItemID: item.ID, Quantity: 11}},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("alınandan fazla iade 400 olmalı, geldi: %d", resp.StatusCode)
	}
}
