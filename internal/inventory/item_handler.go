package inventory

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

var validUnits = map[string]bool{
	"Pcs": true, "Kg": true, "Box": true, "Ltr": true, "Dozen": true,
}

type ItemResponse struct {
	ID            uint    `json:"id"`
	Code          uint    `json:"code"`
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	CategoryID    *uint   `json:"category_id"`
	Category      string  `json:"category"` // okuma anında çözülen kategori adı
	Unit          string  `json:"unit"`
	PurchasePrice float64 `json:"purchase_price"`
	SellPrice     float64 `json:"sell_price"`
	Stock         float64 `json:"stock"`
	ImageURL      string  `json:"image_url"`
}

type CreateItemRequest struct {
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	CategoryID    *uint   `json:"category_id"`
	Unit          string  `json:"unit"`
	PurchasePrice float64 `json:"purchase_price"`
	SellPrice     float64 `json:"sell_price"`
	Stock         float64 `json:"stock"` // açılış stoğu
}

type UpdateItemRequest struct {
	Name          *string  `json:"name"`
	Barcode       *string  `json:"barcode"`
	CategoryID    *uint    `json:"category_id"` // 0 = kategorisiz yap
	Unit          *string  `json:"unit"`
	PurchasePrice *float64 `json:"purchase_price"`
	SellPrice     *float64 `json:"sell_price"`
}

func itemResponse(it models.Item) ItemResponse {
	categoryName := ""
	if it.Category != nil {
		categoryName = it.Category.Name
	}
	return ItemResponse{
		ID:            it.ID,
		Code:          it.Code,
		Name:          it.Name,
		Barcode:       it.Barcode,
		CategoryID:    it.CategoryID,
		Category:      categoryName,
		Unit:          it.Unit,
		PurchasePrice: it.PurchasePrice,
		SellPrice:     it.SellPrice,
		Stock:         it.Stock,
		ImageURL:      it.ImageURL,
	}
}

// loadCategory - cevapta kategori adını çözmek için ilişkiyi doldurur.
func loadCategory(item *models.Item) {
	if item.CategoryID == nil {
		return
	}
	var category models.Category
	if err := database.DB.First(&category, "id = ?", *item.CategoryID).Error; err == nil {
		item.Category = &category
	}
}

// resolveCategoryID - id doluysa kategorinin varlığını doğrular; 0 kategorisiz demektir.
func resolveCategoryID(id *uint) (*uint, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	var category models.Category
	if err := database.DB.First(&category, "id = ?", *id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Kategori bulunamadı (id %d)", *id))
	}
	return id, nil
}

// barcodeInUse - barkod başka bir üründe kayıtlı mı? Düzenleme sırasında
// ürünün kendi barkodu hariç tutulur.
func barcodeInUse(db *gorm.DB, barcode string, excludeID uint) bool {
	if barcode == "" {
		return false
	}
	var existing models.Item
	q := db.Where("barcode = ?", barcode)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q.First(&existing).Error == nil
}

// GET /api/items?category_id=3&q=cola
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Item{}).Preload("Category")

		if cStr := c.Query("category_id"); cStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("category_id = ?", cid)
			}
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("lower(name) LIKE ? OR barcode = ?", like, q)
		}

		var items []models.Item
		if err := dbq.Order("code asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, itemResponse(it))
		}
		return c.JSON(res)
	}
}

// POST /api/items
func CreateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Barcode = strings.TrimSpace(body.Barcode)

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün adı zorunlu")
		}
		if body.Unit == "" {
			body.Unit = "Pcs"
		}
		if !validUnits[body.Unit] {
			return fiber.NewError(fiber.StatusBadRequest, "Birim Pcs, Kg, Box, Ltr veya Dozen olmalı")
		}
		if body.PurchasePrice < 0 || body.SellPrice < 0 || body.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat ve stok negatif olamaz")
		}

		if barcodeInUse(database.DB, body.Barcode, 0) {
			return fiber.NewError(fiber.StatusBadRequest, "Bu barkod zaten kayıtlı")
		}

		categoryID, err := resolveCategoryID(body.CategoryID)
		if err != nil {
			return err
		}

		var item models.Item
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			nextCode, err := counter.Next(tx, counter.ItemCode)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			item = models.Item{
				Code:          uint(nextCode),
				Name:          body.Name,
				Barcode:       body.Barcode,
				CategoryID:    categoryID,
				Unit:          body.Unit,
				PurchasePrice: body.PurchasePrice,
				SellPrice:     body.SellPrice,
				Stock:         body.Stock,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
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
				EntityType:  "item",
				EntityID:    item.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün eklendi: %s (kod %d)", item.Name, item.Code),
				After:       item,
			})
		}

		loadCategory(&item)
		return c.Status(fiber.StatusCreated).JSON(itemResponse(item))
	}
}

// PUT /api/items/:id
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.Item
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		before := item

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün adı boş olamaz")
			}
			item.Name = name
		}
		if body.Barcode != nil {
			barcode := strings.TrimSpace(*body.Barcode)
			// Kendi barkodu hariç tekillik kontrolü
			if barcodeInUse(database.DB, barcode, item.ID) {
				return fiber.NewError(fiber.StatusBadRequest, "Bu barkod zaten kayıtlı")
			}
			item.Barcode = barcode
		}
		if body.CategoryID != nil {
			categoryID, err := resolveCategoryID(body.CategoryID)
			if err != nil {
				return err
			}
			item.CategoryID = categoryID
			item.Category = nil
		}
		if body.Unit != nil {
			if !validUnits[*body.Unit] {
				return fiber.NewError(fiber.StatusBadRequest, "Birim Pcs, Kg, Box, Ltr veya Dozen olmalı")
			}
			item.Unit = *body.Unit
		}
		if body.PurchasePrice != nil {
			if *body.PurchasePrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Alış fiyatı negatif olamaz")
			}
			item.PurchasePrice = *body.PurchasePrice
		}
		if body.SellPrice != nil {
			if *body.SellPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Satış fiyatı negatif olamaz")
			}
			item.SellPrice = *body.SellPrice
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s (kod %d)", item.Name, item.Code),
				Before:      before,
				After:       item,
			})
		}

		loadCategory(&item)
		return c.JSON(itemResponse(item))
	}
}

// DELETE /api/items/:id (sadece admin)
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.Item
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "item",
				EntityID:    item.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s (kod %d)", item.Name, item.Code),
				Before:      item,
			})
		}

		return c.JSON(fiber.Map{"message": "Ürün silindi"})
	}
}
