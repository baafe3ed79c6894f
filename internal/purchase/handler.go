package purchase

import (
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PurchaseLineRequest struct {
	ItemID   uint    `json:"item_id"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

type CreatePurchaseRequest struct {
	VendorID        uint                  `json:"vendor_id"`
	VendorInvoiceNo string                `json:"vendor_invoice_no"`
	PODate          string                `json:"po_date"`       // "2006-01-02", opsiyonel
	PurchaseDate    string                `json:"purchase_date"` // "2006-01-02"
	Items           []PurchaseLineRequest `json:"items"`
	Discount        float64               `json:"discount"`
	Freight         float64               `json:"freight"`
	AmountPaid      float64               `json:"amount_paid"`
}

type PurchaseItemResponse struct {
	ItemID   uint    `json:"item_id"`
	ItemCode uint    `json:"item_code"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Subtotal float64 `json:"subtotal"`
}

type PurchaseResponse struct {
	ID              uint                   `json:"id"`
	VendorID        uint                   `json:"vendor_id"`
	VendorName      string                 `json:"vendor_name"`
	VendorInvoiceNo string                 `json:"vendor_invoice_no"`
	PODate          *string                `json:"po_date"`
	PurchaseDate    string                 `json:"purchase_date"`
	Items           []PurchaseItemResponse `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	Discount        float64                `json:"discount"`
	Freight         float64                `json:"freight"`
	NetTotal        float64                `json:"net_total"`
	AmountPaid      float64                `json:"amount_paid"`
	Balance         float64                `json:"balance"`
}

func purchaseResponse(p models.Purchase, vendorName string) PurchaseResponse {
	items := make([]PurchaseItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, PurchaseItemResponse{
			ItemID:   it.ItemID,
			ItemCode: it.ItemCode,
			Name:     it.Name,
			Quantity: it.Quantity,
			UnitCost: it.UnitCost,
			Subtotal: it.Subtotal,
		})
	}
	var poDate *string
	if p.PODate != nil {
		s := p.PODate.Format("2006-01-02")
		poDate = &s
	}
	return PurchaseResponse{
		ID:              p.ID,
		VendorID:        p.VendorID,
		VendorName:      vendorName,
		VendorInvoiceNo: p.VendorInvoiceNo,
		PODate:          poDate,
		PurchaseDate:    p.PurchaseDate.Format("2006-01-02"),
		Items:           items,
		Subtotal:        p.Subtotal,
		Discount:        p.Discount,
		Freight:         p.Freight,
		NetTotal:        p.NetTotal,
		AmountPaid:      p.AmountPaid,
		Balance:         p.Balance,
	}
}

func validateLines(lines []PurchaseLineRequest) error {
	if len(lines) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "En az bir kalem zorunlu")
	}
	for _, line := range lines {
		if line.ItemID == 0 || line.Quantity <= 0 || line.UnitCost < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Her kalemde ürün, pozitif miktar ve birim maliyet zorunlu")
		}
	}
	return nil
}

// buildItems - kalemleri transaction içindeki taze ürün okumasıyla kurar ve
// her kalemin miktarını stoka ekler.
func buildItems(tx *gorm.DB, lines []PurchaseLineRequest) ([]models.PurchaseItem, float64, error) {
	var (
		items    []models.PurchaseItem
		subtotal float64
	)

	for _, line := range lines {
		var item models.Item
		if err := database.LockForUpdate(tx).First(&item, "id = ?", line.ItemID).Error; err != nil {
			return nil, 0, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Ürün bulunamadı (id %d)", line.ItemID))
		}

		lineSubtotal := line.Quantity * line.UnitCost
		subtotal += lineSubtotal

		items = append(items, models.PurchaseItem{
			ItemID:   item.ID,
			ItemCode: item.Code,
			Name:     item.Name,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
			Subtotal: lineSubtotal,
		})

		if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
			Update("stock", item.Stock+line.Quantity).Error; err != nil {
			return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}
	}

	return items, subtotal, nil
}

// reverseItems - mevcut kalemlerin stok etkisini geri alır (sıfırın altına inmez).
func reverseItems(tx *gorm.DB, items []models.PurchaseItem) error {
	for _, line := range items {
		var item models.Item
		if err := database.LockForUpdate(tx).First(&item, "id = ?", line.ItemID).Error; err != nil {
			// Ürün silinmişse geri alınacak stok da yok
			continue
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
	return nil
}

// applyVendorBalance - Credit tedarikçinin açık bakiyesine delta ekler ve
// bakiye hareketini kaydeder.
func applyVendorBalance(tx *gorm.DB, vendorID uint, delta float64, txnType models.BalanceTransactionType, desc string) error {
	if delta == 0 {
		return nil
	}
	var vendor models.Vendor
	if err := database.LockForUpdate(tx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
	}
	if vendor.Type != models.PartyCredit {
		return nil
	}

	vendor.Balance += delta
	if err := tx.Save(&vendor).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi bakiyesi güncellenemedi")
	}

	balanceTxn := models.BalanceTransaction{
		VendorID:       &vendor.ID,
		Type:           txnType,
		Amount:         delta,
		CurrentBalance: vendor.Balance,
		Description:    desc,
	}
	if err := tx.Create(&balanceTxn).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hareketi kaydedilemedi")
	}
	return nil
}

// POST /api/purchases - alış kaydı ve stok artışları TEK transaction içinde yazılır.
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.VendorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi seçilmeli")
		}
		if err := validateLines(body.Items); err != nil {
			return err
		}
		if body.Discount < 0 || body.Freight < 0 || body.AmountPaid < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "İskonto, navlun ve ödeme negatif olamaz")
		}

		purchaseDate, err := time.Parse("2006-01-02", body.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Alış tarihi 'YYYY-MM-DD' formatında olmalı")
		}
		var poDate *time.Time
		if body.PODate != "" {
			d, err := time.Parse("2006-01-02", body.PODate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "PO tarihi 'YYYY-MM-DD' formatında olmalı")
			}
			poDate = &d
		}

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", body.VendorID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Tedarikçi bulunamadı (ID: %d)", body.VendorID))
		}

		var purchase models.Purchase
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			items, subtotal, err := buildItems(tx, body.Items)
			if err != nil {
				return err
			}

			netTotal := subtotal - body.Discount + body.Freight
			balance := netTotal - body.AmountPaid

			purchase = models.Purchase{
				VendorID:        vendor.ID,
				VendorInvoiceNo: strings.TrimSpace(body.VendorInvoiceNo),
				PODate:          poDate,
				PurchaseDate:    purchaseDate,
				Items:           items,
				Subtotal:        subtotal,
				Discount:        body.Discount,
				Freight:         body.Freight,
				NetTotal:        netTotal,
				AmountPaid:      body.AmountPaid,
				Balance:         balance,
			}
			if err := tx.Create(&purchase).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Alış kaydedilemedi")
			}

			return applyVendorBalance(tx, vendor.ID, balance, models.BalanceTxnPurchase,
				fmt.Sprintf("Alış #%d", purchase.ID))
		})
		if err != nil {
			return err
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase",
				EntityID:    purchase.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Alış kaydedildi: %s, net %.2f", vendor.Name, purchase.NetTotal),
				After:       purchase,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(purchaseResponse(purchase, vendor.Name))
	}
}

// GET /api/purchases?vendor_id=3
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Purchase{}).Preload("Items").Preload("Vendor")

		if vStr := c.Query("vendor_id"); vStr != "" {
			var vid uint
			if _, err := fmt.Sscan(vStr, &vid); err == nil && vid > 0 {
				dbq = dbq.Where("vendor_id = ?", vid)
			}
		}

		var purchases []models.Purchase
		if err := dbq.Order("purchase_date desc, id desc").Limit(100).Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alışlar listelenemedi")
		}

		res := make([]PurchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			res = append(res, purchaseResponse(p, p.Vendor.Name))
		}
		return c.JSON(res)
	}
}

// PUT /api/purchases/:id - eski kalemlerin stok etkisi geri alınır, yenisi uygulanır.
func UpdatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var existing models.Purchase
		if err := database.DB.Preload("Items").First(&existing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alış kaydı bulunamadı")
		}
		before := existing

		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.VendorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi seçilmeli")
		}
		if err := validateLines(body.Items); err != nil {
			return err
		}

		purchaseDate, err := time.Parse("2006-01-02", body.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Alış tarihi 'YYYY-MM-DD' formatında olmalı")
		}
		var poDate *time.Time
		if body.PODate != "" {
			d, err := time.Parse("2006-01-02", body.PODate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "PO tarihi 'YYYY-MM-DD' formatında olmalı")
			}
			poDate = &d
		}

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", body.VendorID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Tedarikçi bulunamadı (ID: %d)", body.VendorID))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := reverseItems(tx, existing.Items); err != nil {
				return err
			}
			if err := applyVendorBalance(tx, existing.VendorID, -existing.Balance, models.BalanceTxnPurchase,
				fmt.Sprintf("Alış #%d düzenlendi (eski bakiye iptali)", existing.ID)); err != nil {
				return err
			}

			if err := tx.Delete(&models.PurchaseItem{}, "purchase_id = ?", existing.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Eski kalemler silinemedi")
			}

			items, subtotal, err := buildItems(tx, body.Items)
			if err != nil {
				return err
			}

			netTotal := subtotal - body.Discount + body.Freight
			balance := netTotal - body.AmountPaid

			existing.VendorID = vendor.ID
			existing.VendorInvoiceNo = strings.TrimSpace(body.VendorInvoiceNo)
			existing.PODate = poDate
			existing.PurchaseDate = purchaseDate
			existing.Items = items
			existing.Subtotal = subtotal
			existing.Discount = body.Discount
			existing.Freight = body.Freight
			existing.NetTotal = netTotal
			existing.AmountPaid = body.AmountPaid
			existing.Balance = balance

			if err := tx.Save(&existing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Alış güncellenemedi")
			}

			return applyVendorBalance(tx, vendor.ID, balance, models.BalanceTxnPurchase,
				fmt.Sprintf("Alış #%d düzenlendi", existing.ID))
		})
		if err != nil {
			return err
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase",
				EntityID:    existing.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Alış güncellendi: %s, net %.2f", vendor.Name, existing.NetTotal),
				Before:      before,
				After:       existing,
			})
		}

		return c.JSON(purchaseResponse(existing, vendor.Name))
	}
}

// DELETE /api/purchases/:id (sadece admin) - stok etkisi geri alınır.
func DeletePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var existing models.Purchase
		if err := database.DB.Preload("Items").First(&existing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alış kaydı bulunamadı")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := reverseItems(tx, existing.Items); err != nil {
				return err
			}
			if err := applyVendorBalance(tx, existing.VendorID, -existing.Balance, models.BalanceTxnPurchase,
				fmt.Sprintf("Alış #%d silindi", existing.ID)); err != nil {
				return err
			}
			if err := tx.Delete(&models.PurchaseItem{}, "purchase_id = ?", existing.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kalemler silinemedi")
			}
			if err := tx.Delete(&models.Purchase{}, "id = ?", existing.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Alış silinemedi")
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
				EntityType:  "purchase",
				EntityID:    existing.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Alış silindi (net %.2f)", existing.NetTotal),
				Before:      existing,
			})
		}

		return c.JSON(fiber.Map{"message": "Alış kaydı silindi, stok geri alındı"})
	}
}
