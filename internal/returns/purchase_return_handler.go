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

type CreatePurchaseReturnRequest struct {
	PurchaseID uint                `json:"purchase_id"`
	Items      []ReturnLineRequest `json:"items"`
}

type PurchaseReturnResponse struct {
	ID          uint                        `json:"id"`
	PurchaseID  uint                        `json:"purchase_id"`
	VendorName  string                      `json:"vendor_name"`
	Items       []models.PurchaseReturnItem `json:"items"`
	RefundTotal float64                     `json:"refund_total"`
	Status      string                      `json:"status"`
	CreatedAt   string                      `json:"created_at"`
}

func purchaseReturnResponse(pr models.PurchaseReturn) PurchaseReturnResponse {
	return PurchaseReturnResponse{
		ID:          pr.ID,
		PurchaseID:  pr.PurchaseID,
		VendorName:  pr.VendorName,
		Items:       pr.Items,
		RefundTotal: pr.RefundTotal,
		Status:      pr.Status,
		CreatedAt:   pr.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// POST /api/purchase-returns - iade edilen mal stoktan düşülür; stok hiçbir
// durumda sıfırın altına inmez (satılmış mal tedarikçiye geri gidemez ama
// kayıt yine de tutulur).
func CreatePurchaseReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.PurchaseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Alış kaydı seçilmeli")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir iade kalemi zorunlu")
		}

		var purchase models.Purchase
		if err := database.DB.Preload("Items").Preload("Vendor").
			First(&purchase, "id = ?", body.PurchaseID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Alış kaydı bulunamadı (id %d)", body.PurchaseID))
		}

		purchaseLines := make(map[uint]models.PurchaseItem, len(purchase.Items))
		for _, line := range purchase.Items {
			purchaseLines[line.ItemID] = line
		}

		var previous []models.PurchaseReturn
		if err := database.DB.Preload("Items").Where("purchase_id = ?", purchase.ID).Find(&previous).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Önceki iadeler okunamadı")
		}
		returned := make(map[uint]float64)
		for _, pr := range previous {
			for _, line := range pr.Items {
				returned[line.ItemID] += line.Quantity
			}
		}

		var purchaseReturn models.PurchaseReturn
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var (
				items       []models.PurchaseReturnItem
				refundTotal float64
			)

			for _, line := range body.Items {
				if line.ItemID == 0 || line.Quantity <= 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Her iade kaleminde ürün ve pozitif miktar zorunlu")
				}

				original, ok := purchaseLines[line.ItemID]
				if !ok {
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("Ürün bu alışta yok (id %d)", line.ItemID))
				}
				remaining := original.Quantity - returned[line.ItemID]
				if line.Quantity > remaining {
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("\"%s\" için iade miktarı alınan miktarı aşıyor! İade edilebilir: %g, İstenen: %g",
							original.Name, remaining, line.Quantity))
				}

				amount := line.Quantity * original.UnitCost
				refundTotal += amount
				items = append(items, models.PurchaseReturnItem{
					ItemID:   original.ItemID,
					ItemCode: original.ItemCode,
					Name:     original.Name,
					Quantity: line.Quantity,
					UnitCost: original.UnitCost,
					Amount:   amount,
				})

				var item models.Item
				if err := database.LockForUpdate(tx).First(&item, "id = ?", line.ItemID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Ürün bulunamadı (id %d)", line.ItemID))
				}
				newStock := item.Stock - line.Quantity
				if newStock < 0 {
					newStock = 0
				}
				if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
					Update("stock", newStock).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
				}
			}

			purchaseReturn = models.PurchaseReturn{
				PurchaseID:  purchase.ID,
				VendorID:    purchase.VendorID,
				VendorName:  purchase.Vendor.Name,
				Items:       items,
				RefundTotal: refundTotal,
				Status:      "completed",
			}
			if err := tx.Create(&purchaseReturn).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "İade kaydedilemedi")
			}

			// Veresiye tedarikçiye borç iade tutarı kadar azalır
			var vendor models.Vendor
			if err := database.LockForUpdate(tx).First(&vendor, "id = ?", purchase.VendorID).Error; err == nil &&
				vendor.Type == models.PartyCredit {
				vendor.Balance -= refundTotal
				if err := tx.Save(&vendor).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi bakiyesi güncellenemedi")
				}
				balanceTxn := models.BalanceTransaction{
					VendorID:       &vendor.ID,
					Type:           models.BalanceTxnPurchaseReturn,
					Amount:         -refundTotal,
					CurrentBalance: vendor.Balance,
					Description:    fmt.Sprintf("Alış iadesi, alış #%d", purchase.ID),
				}
				if err := tx.Create(&balanceTxn).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hareketi kaydedilemedi")
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
				EntityType:  "purchase_return",
				EntityID:    purchaseReturn.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Alış iadesi: alış #%d, tutar %.2f", purchase.ID, purchaseReturn.RefundTotal),
				After:       purchaseReturn,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(purchaseReturnResponse(purchaseReturn))
	}
}

// GET /api/purchase-returns?purchase_id=7
func ListPurchaseReturnsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.PurchaseReturn{}).Preload("Items")

		if pStr := c.Query("purchase_id"); pStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pStr, &pid); err == nil && pid > 0 {
				dbq = dbq.Where("purchase_id = ?", pid)
			}
		}

		var purchaseReturns []models.PurchaseReturn
		if err := dbq.Order("id desc").Limit(100).Find(&purchaseReturns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İadeler listelenemedi")
		}

		res := make([]PurchaseReturnResponse, 0, len(purchaseReturns))
		for _, pr := range purchaseReturns {
			res = append(res, purchaseReturnResponse(pr))
		}
		return c.JSON(res)
	}
}
