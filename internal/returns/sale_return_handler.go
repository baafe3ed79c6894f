package returns

import (
	"fmt"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReturnLineRequest struct {
	ItemID   uint    `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

type CreateSaleReturnRequest struct {
	InvoiceNo uint                `json:"invoice_no"`
	Items     []ReturnLineRequest `json:"items"`
}

type SaleReturnResponse struct {
	ID            uint                    `json:"id"`
	InvoiceNo     uint                    `json:"invoice_no"`
	CustomerName  string                  `json:"customer_name"`
	OriginalTotal float64                 `json:"original_total"`
	Items         []models.SaleReturnItem `json:"items"`
	ReturnTotal   float64                 `json:"return_total"`
	Status        string                  `json:"status"`
	CreatedAt     string                  `json:"created_at"`
}

func saleReturnResponse(sr models.SaleReturn) SaleReturnResponse {
	return SaleReturnResponse{
		ID:            sr.ID,
		InvoiceNo:     sr.InvoiceNo,
		CustomerName:  sr.CustomerName,
		OriginalTotal: sr.OriginalTotal,
		Items:         sr.Items,
		ReturnTotal:   sr.ReturnTotal,
		Status:        sr.Status,
		CreatedAt:     sr.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// POST /api/sale-returns - iade edilen miktar stoka geri eklenir,
// iade tutarı orijinal satışın birim fiyatından hesaplanır.
func CreateSaleReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.InvoiceNo == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fatura numarası zorunlu")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir iade kalemi zorunlu")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items").First(&sale, "invoice_no = ?", body.InvoiceNo).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Fatura bulunamadı: %d", body.InvoiceNo))
		}

		// Orijinal satırlar ürün bazında
		saleLines := make(map[uint]models.SaleItem, len(sale.Items))
		for _, line := range sale.Items {
			saleLines[line.ItemID] = line
		}

		// Bu faturaya daha önce yapılmış iadeler, satır limitinden düşülür
		var previous []models.SaleReturn
		if err := database.DB.Preload("Items").Where("sale_id = ?", sale.ID).Find(&previous).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Önceki iadeler okunamadı")
		}
		returned := make(map[uint]float64)
		for _, sr := range previous {
			for _, line := range sr.Items {
				returned[line.ItemID] += line.Quantity
			}
		}

		var saleReturn models.SaleReturn
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var (
				items       []models.SaleReturnItem
				returnTotal float64
			)

			for _, line := range body.Items {
				if line.ItemID == 0 || line.Quantity <= 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Her iade kaleminde ürün ve pozitif miktar zorunlu")
				}

				original, ok := saleLines[line.ItemID]
				if !ok {
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("Ürün bu faturada yok (id %d)", line.ItemID))
				}
				remaining := original.Quantity - returned[line.ItemID]
				if line.Quantity > remaining {
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("\"%s\" için iade miktarı satılan miktarı aşıyor! İade edilebilir: %g, İstenen: %g",
							original.Name, remaining, line.Quantity))
				}

				amount := line.Quantity * original.Price
				returnTotal += amount
				items = append(items, models.SaleReturnItem{
					ItemID:   original.ItemID,
					ItemCode: original.ItemCode,
					Name:     original.Name,
					Quantity: line.Quantity,
					Price:    original.Price,
					Amount:   amount,
				})

				// Stok taze okuma üzerinden geri eklenir
				var item models.Item
				if err := database.LockForUpdate(tx).First(&item, "id = ?", line.ItemID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Ürün bulunamadı (id %d)", line.ItemID))
				}
				if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
					Update("stock", item.Stock+line.Quantity).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
				}
			}

			saleReturn = models.SaleReturn{
				SaleID:        sale.ID,
				InvoiceNo:     sale.InvoiceNo,
				CustomerID:    sale.CustomerID,
				CustomerName:  sale.CustomerName,
				OriginalTotal: sale.Total,
				Items:         items,
				ReturnTotal:   returnTotal,
				Status:        "completed",
			}
			if err := tx.Create(&saleReturn).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "İade kaydedilemedi")
			}

			// Veresiye müşterinin açık bakiyesi iade tutarı kadar düşer
			if sale.CustomerID != nil {
				var customer models.Customer
				if err := database.LockForUpdate(tx).First(&customer, "id = ?", *sale.CustomerID).Error; err == nil &&
					customer.Type == models.PartyCredit {
					customer.Balance -= returnTotal
					if err := tx.Save(&customer).Error; err != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "Müşteri bakiyesi güncellenemedi")
					}
					balanceTxn := models.BalanceTransaction{
						CustomerID:     &customer.ID,
						Type:           models.BalanceTxnSaleReturn,
						Amount:         -returnTotal,
						CurrentBalance: customer.Balance,
						Description:    fmt.Sprintf("Satış iadesi, fatura #%d", sale.InvoiceNo),
					}
					if err := tx.Create(&balanceTxn).Error; err != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hareketi kaydedilemedi")
					}
				}
			}

			return nil
		})
		if err != nil {
			return err
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale_return",
				EntityID:    saleReturn.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Satış iadesi: fatura #%d, tutar %.2f", sale.InvoiceNo, saleReturn.ReturnTotal),
				After:       saleReturn,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(saleReturnResponse(saleReturn))
	}
}

// GET /api/sale-returns?invoice_no=42
func ListSaleReturnsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.SaleReturn{}).Preload("Items")

		if invStr := c.Query("invoice_no"); invStr != "" {
			var inv uint
			if _, err := fmt.Sscan(invStr, &inv); err == nil && inv > 0 {
				dbq = dbq.Where("invoice_no = ?", inv)
			}
		}

		var saleReturns []models.SaleReturn
		if err := dbq.Order("id desc").Limit(100).Find(&saleReturns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İadeler listelenemedi")
		}

		res := make([]SaleReturnResponse, 0, len(saleReturns))
		for _, sr := range saleReturns {
			res = append(res, saleReturnResponse(sr))
		}
		return c.JSON(res)
	}
}
