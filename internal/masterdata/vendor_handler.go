package masterdata

import (
	"fmt"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/counter"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type VendorResponse struct {
	ID          uint             `json:"id"`
	VendorID    uint             `json:"vendor_id"`
	Name        string           `json:"name"`
	Address     string           `json:"address"`
	Phone       string           `json:"phone"`
	Type        models.PartyType `json:"type"`
	CreditLimit float64          `json:"credit_limit"`
	Balance     float64          `json:"balance"`
}

type CreateVendorRequest struct {
	Name        string           `json:"name"`
	Address     string           `json:"address"`
	Phone       string           `json:"phone"`
	Type        models.PartyType `json:"type"`
	CreditLimit float64          `json:"credit_limit"`
}

func vendorResponse(v models.Vendor) VendorResponse {
	return VendorResponse{
		ID:          v.ID,
		VendorID:    v.VendorID,
		Name:        v.Name,
		Address:     v.Address,
		Phone:       v.Phone,
		Type:        v.Type,
		CreditLimit: v.CreditLimit,
		Balance:     v.Balance,
	}
}

// GET /api/vendors
func ListVendorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vendors []models.Vendor
		if err := database.DB.Order("vendor_id asc").Find(&vendors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		res := make([]VendorResponse, 0, len(vendors))
		for _, v := range vendors {
			res = append(res, vendorResponse(v))
		}
		return c.JSON(res)
	}
}

// POST /api/vendors
func CreateVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVendorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || strings.TrimSpace(body.Phone) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim ve telefon zorunlu")
		}

		if body.Type == "" {
			body.Type = models.PartyCash
		}
		if body.Type != models.PartyCash && body.Type != models.PartyCredit {
			return fiber.NewError(fiber.StatusBadRequest, "Tip 'Cash' veya 'Credit' olmalı")
		}

		if body.Type == models.PartyCredit && body.CreditLimit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Credit tedarikçi için kredi limiti pozitif olmalı")
		}
		if body.Type == models.PartyCash {
			body.CreditLimit = 0
		}

		var vendor models.Vendor
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			nextID, err := counter.Next(tx, counter.VendorID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			vendor = models.Vendor{
				VendorID:    uint(nextID),
				Name:        body.Name,
				Address:     strings.TrimSpace(body.Address),
				Phone:       strings.TrimSpace(body.Phone),
				Type:        body.Type,
				CreditLimit: body.CreditLimit,
			}
			if err := tx.Create(&vendor).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
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
				EntityType:  "vendor",
				EntityID:    vendor.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Tedarikçi eklendi: %s (#%d)", vendor.Name, vendor.VendorID),
				After:       vendor,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(vendorResponse(vendor))
	}
}

// DELETE /api/vendors/:id (sadece admin)
func DeleteVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		if err := database.DB.Delete(&vendor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "vendor",
				EntityID:    vendor.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Tedarikçi silindi: %s (#%d)", vendor.Name, vendor.VendorID),
				Before:      vendor,
			})
		}

		return c.JSON(fiber.Map{"message": "Tedarikçi silindi"})
	}
}
