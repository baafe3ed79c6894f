package dashboard

import (
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

func TestSummaryAggregatesSales(t *testing.T) {
	db := setupTestDB(t)

	item := models.Item{Code: 101, Name: "Cola", Unit: "Pcs", SellPrice: 15, Stock: 3}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("ürün eklenemedi: %v", err)
	}

	now := time.Now()
	for i, total := range []float64{100, 50} {
		sale := models.Sale{
			InvoiceNo: uint(i + 1), ReceiptID: fmt.Sprintf("r-%d", i),
			CustomerName: "Walk-in", CustomerType: models.PartyCash,
			SaleDate: now,
			Items: []models.SaleItem{{
				ItemID: item.ID, ItemCode: item.Code, Name: item.Name, Quantity: 1, Price: total, Amount: total,
			}},
			Subtotal: total, Total: total,
			PaymentMethod: models.PaymentCash, Status: "completed",
		}
		if err := db.Create(&sale).Error; err != nil {
			t.Fatalf("satış eklenemedi: %v", err)
		}
	}

	app := fiber.New()
	app.Get("/api/dashboard/summary", SummaryHandler())

	req, _ := http.NewRequest("GET", "/api/dashboard/summary?days=7", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirdi, geldi: %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var got SummaryResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	if got.TotalRevenue != 150 {
		t.Errorf("toplam ciro 150 olmalı, geldi: %v", got.TotalRevenue)
	}
	if got.OrderCount != 2 {
		t.Errorf("sipariş sayısı 2 olmalı, geldi: %d", got.OrderCount)
	}
	if got.AvgOrderValue != 75 {
		t.Errorf("ortalama sepet 75 olmalı, geldi: %v", got.AvgOrderValue)
	}
	if len(got.Daily) != 7 {
		t.Errorf("7 günlük seri beklenirdi, geldi: %d", len(got.Daily))
	}
	if len(got.TopProducts) != 1 || got.TopProducts[0].Revenue != 150 {
		t.Errorf("en çok satan ürün cirosu 150 olmalı, geldi: %+v", got.TopProducts)
	}
	if got.LowStockCount != 1 {
		t.Errorf("kritik stok sayısı 1 olmalı, geldi: %d", got.LowStockCount)
	}
}
