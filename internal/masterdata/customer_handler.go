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

type CustomerResponse struct {
	ID          uint             `json:"id"`
	CustomerID  uint             `json:"customer_id"`
	Name        string           `json:"name"`
	Address     string           `json:"address"`
	Phone       string           `json:"phone"`
	Type        models.PartyType `json:"type"`
	CreditLimit float64          `json:"credit_limit"`
	Balance     float64          `json:"balance"`
}

type CreateCustomerRequest struct {
	Name        string           `json:"name"`
	Address     string           `json:"address"`
	Phone       string           `json:"phone"`
	Type        models.PartyType `json:"type"` // "Cash" veya "Credit"
	CreditLimit float64          `json:"credit_limit"`
}

func customerResponse(cu models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          cu.ID,
		CustomerID:  cu.CustomerID,
		Name:        cu.Name,
		Address:     cu.Address,
		Phone:       cu.Phone,
		Type:        cu.Type,
		CreditLimit: cu.CreditLimit,
		Balance:     cu.Balance,
	}
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		if err := database.DB.Order("customer_id asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			res = append(res, customerResponse(cu))
		}
		return c.JSON(res)
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
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

		// Credit müşteride pozitif limit zorunlu; Cash müşteride limit sıfırlanır
		if body.Type == models.PartyCredit && body.CreditLimit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Credit müşteri için kredi limiti pozitif olmalı")
		}
		if body.Type == models.PartyCash {
			body.CreditLimit = 0
		}

		var customer models.Customer
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			nextID, err := counter.Next(tx, counter.CustomerID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			customer = models.Customer{
				CustomerID:  uint(nextID),
				Name:        body.Name,
				Address:     strings.TrimSpace(body.Address),
				Phone:       strings.TrimSpace(body.Phone),
				Type:        body.Type,
				CreditLimit: body.CreditLimit,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
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
				EntityType:  "customer",
				EntityID:    customer.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Müşteri eklendi: %s (#%d)", customer.Name, customer.CustomerID),
				After:       customer,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(customerResponse(customer))
	}
}

// DELETE /api/customers/:id (sadece admin)
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    customer.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Müşteri silindi: %s (#%d)", customer.Name, customer.CustomerID),
				Before:      customer,
			})
		}

		return c.JSON(fiber.Map{"message": "Müşteri silindi"})
	}
}
