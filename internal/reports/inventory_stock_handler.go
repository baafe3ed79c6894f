package reports

import (
	"time"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type InventoryRow struct {
	ItemCode      uint    `json:"item_code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Unit          string  `json:"unit"`
	Opening       float64 `json:"opening"`
	QtyIn         float64 `json:"qty_in"`
	QtyOut        float64 `json:"qty_out"`
	Closing       float64 `json:"closing"`
	PurchasePrice float64 `json:"purchase_price"`
	StockValue    float64 `json:"stock_value"`
}

type InventoryReport struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Rows       []InventoryRow `json:"rows"`
	TotalValue float64        `json:"total_value"`
}

// parseReportWindow - "YYYY-MM-DD" çiftini gün başı / gün sonu aralığına çevirir.
// Boş parametreler son 30 günü kapsar.
func parseReportWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if fromStr != "" {
		d, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Başlangıç tarihi 'YYYY-MM-DD' formatında olmalı")
		}
		from = d
	}
	if toStr != "" {
		d, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Bitiş tarihi 'YYYY-MM-DD' formatında olmalı")
		}
		to = d
	}

	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())
	if to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Bitiş tarihi başlangıçtan önce olamaz")
	}
	return from, to, nil
}

// calculateBalances - açılış stoğu mevcut stoktan aralık içi hareketleri geri
// sararak bulunur: opening = stock - qtyIn + qtyOut. Kapanış bu yüzden her
// zaman mevcut stoğa eşittir; rapor aralık içi hareketi kırılımlı gösterir.
func calculateBalances(items []models.Item, purchases []models.Purchase, sales []models.Sale, from, to time.Time) ([]InventoryRow, float64) {
	qtyIn := make(map[uint]float64)
	qtyOut := make(map[uint]float64)

	inWindow := func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	}

	for _, p := range purchases {
		if !inWindow(p.PurchaseDate) {
			continue
		}
		for _, line := range p.Items {
			qtyIn[line.ItemID] += line.Quantity
		}
	}
	for _, s := range sales {
		if !inWindow(s.SaleDate) {
			continue
		}
		for _, line := range s.Items {
			qtyOut[line.ItemID] += line.Quantity
		}
	}

	rows := make([]InventoryRow, 0, len(items))
	var totalValue float64
	for _, item := range items {
		in := qtyIn[item.ID]
		out := qtyOut[item.ID]
		opening := item.Stock - in + out
		closing := opening + in - out

		var value float64
		if closing > 0 {
			value = closing * item.PurchasePrice
		}
		totalValue += value

		categoryName := ""
		if item.Category != nil {
			categoryName = item.Category.Name
		}

		rows = append(rows, InventoryRow{
			ItemCode:      item.Code,
			Name:          item.Name,
			Category:      categoryName,
			Unit:          item.Unit,
			Opening:       opening,
			QtyIn:         in,
			QtyOut:        out,
			Closing:       closing,
			PurchasePrice: item.PurchasePrice,
			StockValue:    value,
		})
	}
	return rows, totalValue
}

// GET /api/reports/inventory?from=2025-01-01&to=2025-01-31&category_id=3
func InventoryReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parseReportWindow(c.Query("from"), c.Query("to"))
		if err != nil {
			return err
		}

		itemQuery := database.DB.Model(&models.Item{}).Preload("Category")
		if categoryID := c.QueryInt("category_id"); categoryID > 0 {
			itemQuery = itemQuery.Where("category_id = ?", categoryID)
		}
		var items []models.Item
		if err := itemQuery.Order("code asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler okunamadı")
		}

		var purchases []models.Purchase
		if err := database.DB.Preload("Items").
			Where("purchase_date BETWEEN ? AND ?", from, to).
			Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alışlar okunamadı")
		}

		var sales []models.Sale
		if err := database.DB.Preload("Items").
			Where("sale_date BETWEEN ? AND ?", from, to).
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar okunamadı")
		}

		rows, totalValue := calculateBalances(items, purchases, sales, from, to)
		return c.JSON(InventoryReport{
			From:       from.Format("2006-01-02"),
			To:         to.Format("2006-01-02"),
			Rows:       rows,
			TotalValue: totalValue,
		})
	}
}
