package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SaleRegisterRow struct {
	InvoiceNo    uint    `json:"invoice_no"`
	Date         string  `json:"date"`
	Customer     string  `json:"customer"`
	CustomerType string  `json:"customer_type"`
	ItemCode     uint    `json:"item_code"`
	ItemName     string  `json:"item_name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Rate         float64 `json:"rate"`
	AmountExcTax float64 `json:"amount_exc_tax"`
	GST          float64 `json:"gst"`
	AmountIncTax float64 `json:"amount_inc_tax"`
}

type SaleRegisterReport struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	Rows         []SaleRegisterRow `json:"rows"`
	TotalQty     float64           `json:"total_qty"`
	TotalExcTax  float64           `json:"total_exc_tax"`
	TotalGST     float64           `json:"total_gst"`
	TotalIncTax  float64           `json:"total_inc_tax"`
	InvoiceCount int               `json:"invoice_count"`
}

func loadSaleRegister(c *fiber.Ctx) (*SaleRegisterReport, error) {
	from, to, err := parseReportWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		return nil, err
	}

	dbq := database.DB.Preload("Items").Preload("Items.Item").
		Where("sale_date BETWEEN ? AND ?", from, to)
	if name := strings.TrimSpace(c.Query("customer_name")); name != "" {
		dbq = dbq.Where("lower(customer_name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var sales []models.Sale
	if err := dbq.Order("invoice_no asc").Find(&sales).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Satışlar okunamadı")
	}

	report := &SaleRegisterReport{
		From:         from.Format("2006-01-02"),
		To:           to.Format("2006-01-02"),
		Rows:         []SaleRegisterRow{},
		InvoiceCount: len(sales),
	}

	// Satışlar satır bazına açılır; KDV satırın tutarı üzerinden faturanın
	// oranıyla hesaplanır.
	for _, sale := range sales {
		for _, line := range sale.Items {
			gst := line.Amount * sale.TaxRate / 100
			row := SaleRegisterRow{
				InvoiceNo:    sale.InvoiceNo,
				Date:         sale.SaleDate.Format("2006-01-02"),
				Customer:     sale.CustomerName,
				CustomerType: string(sale.CustomerType),
				ItemCode:     line.ItemCode,
				ItemName:     line.Name,
				Quantity:     line.Quantity,
				Unit:         line.Item.Unit,
				Rate:         line.Price,
				AmountExcTax: line.Amount,
				GST:          gst,
				AmountIncTax: line.Amount + gst,
			}
			report.Rows = append(report.Rows, row)
			report.TotalQty += row.Quantity
			report.TotalExcTax += row.AmountExcTax
			report.TotalGST += row.GST
			report.TotalIncTax += row.AmountIncTax
		}
	}
	return report, nil
}

// GET /api/reports/sales?from=...&to=...&customer_name=...
func SaleRegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := loadSaleRegister(c)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

var saleCSVHeader = []string{
	"Invoice No", "Date", "Customer", "Customer Type", "Item Code", "Item Name",
	"Quantity", "Unit", "Rate", "Amount Exc Tax", "GST", "Amount Inc Tax",
}

// GET /api/reports/sales/csv - aynı kayıttaki satırların CSV dökümü.
func SaleRegisterCSVHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := loadSaleRegister(c)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(saleCSVHeader); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "CSV yazılamadı")
		}
		for _, row := range report.Rows {
			record := []string{
				fmt.Sprintf("%d", row.InvoiceNo),
				row.Date,
				row.Customer,
				row.CustomerType,
				fmt.Sprintf("%d", row.ItemCode),
				row.ItemName,
				fmt.Sprintf("%g", row.Quantity),
				row.Unit,
				fmt.Sprintf("%.2f", row.Rate),
				fmt.Sprintf("%.2f", row.AmountExcTax),
				fmt.Sprintf("%.2f", row.GST),
				fmt.Sprintf("%.2f", row.AmountIncTax),
			}
			if err := w.Write(record); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "CSV yazılamadı")
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "CSV yazılamadı")
		}

		filename := fmt.Sprintf("satis-raporu_%s_%s.csv", report.From, report.To)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}
