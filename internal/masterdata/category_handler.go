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

type CategoryResponse struct {
	ID         uint   `json:"id"`
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

func categoryResponse(cat models.Category) CategoryResponse {
	return CategoryResponse{ID: cat.ID, CategoryID: cat.CategoryID, Name: cat.Name}
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("category_id asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, categoryResponse(cat))
		}
		return c.JSON(res)
	}
}

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori adı zorunlu")
		}

		var existing models.Category
		if err := database.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu kategori zaten mevcut")
		}

		var cat models.Category
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			nextID, err := counter.Next(tx, counter.CategoryID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			cat = models.Category{CategoryID: uint(nextID), Name: body.Name}
			if err := tx.Create(&cat).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
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
				EntityType:  "category",
				EntityID:    cat.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Kategori eklendi: %s", cat.Name),
				After:       cat,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(categoryResponse(cat))
	}
}

// DELETE /api/categories/:id (sadece admin)
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cat models.Category
		if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var inUse int64
		if err := database.DB.Model(&models.Item{}).Where("category_id = ?", cat.ID).Count(&inUse).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori kontrol edilemedi")
		}
		if inUse > 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Kategori %d üründe kullanılıyor, önce ürünleri taşıyın", inUse))
		}

		if err := database.DB.Delete(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "category",
				EntityID:    cat.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Kategori silindi: %s", cat.Name),
				Before:      cat,
			})
		}

		return c.JSON(fiber.Map{"message": "Kategori silindi"})
	}
}
