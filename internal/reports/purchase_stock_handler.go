package reports

import (
	"fmt"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PurchaseRegisterRow struct {
	PurchaseID      uint    `json:"purchase_id"`
	Date            string  `json:"date"`
	Vendor          string  `json:"vendor"`
	VendorInvoiceNo string  `json:"vendor_invoice_no"`
	ItemCode        uint    `json:"item_code"`
	ItemName        string  `json:"item_name"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unit_cost"`
	Amount          float64 `json:"amount"`
}

type PurchaseRegisterReport struct {
	From           string                `json:"from"`
	To             string                `json:"to"`
	Rows           []PurchaseRegisterRow `json:"rows"`
	TotalPurchases int                   `json:"total_purchases"`
	TotalAmount    float64               `json:"total_amount"`
	TotalPaid      float64               `json:"total_paid"`
	TotalBalance   float64               `json:"total_balance"`
}

// GET /api/reports/purchases?from=...&to=...&vendor_id=3
func PurchaseRegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parseReportWindow(c.Query("from"), c.Query("to"))
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Items").Preload("Vendor").
			Where("purchase_date BETWEEN ? AND ?", from, to)
		if vStr := c.Query("vendor_id"); vStr != "" {
			var vid uint
			if _, err := fmt.Sscan(vStr, &vid); err == nil && vid > 0 {
				dbq = dbq.Where("vendor_id = ?", vid)
			}
		}

		var purchases []models.Purchase
		if err := dbq.Order("purchase_date asc, id asc").Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alışlar okunamadı")
		}

		report := PurchaseRegisterReport{
			From:           from.Format("2006-01-02"),
			To:             to.Format("2006-01-02"),
			Rows:           []PurchaseRegisterRow{},
			TotalPurchases: len(purchases),
		}
		for _, p := range purchases {
			report.TotalAmount += p.NetTotal
			report.TotalPaid += p.AmountPaid
			report.TotalBalance += p.Balance
			for _, line := range p.Items {
				report.Rows = append(report.Rows, PurchaseRegisterRow{
					PurchaseID:      p.ID,
					Date:            p.PurchaseDate.Format("2006-01-02"),
					Vendor:          p.Vendor.Name,
					VendorInvoiceNo: p.VendorInvoiceNo,
					ItemCode:        line.ItemCode,
					ItemName:        line.Name,
					Quantity:        line.Quantity,
					UnitCost:        line.UnitCost,
					Amount:          line.Subtotal,
				})
			}
		}
		return c.JSON(report)
	}
}
