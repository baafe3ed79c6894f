package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// POST /api/items/:id/image - multipart "image" alanından ürün fotoğrafı yükler.
// Dosya ITEM_IMAGE_PATH altına ürün kodu + uuid ile kaydedilir, URL ürüne yazılır.
func UploadItemImageHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.Item
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		file, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image alanı zorunlu (multipart/form-data)")
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExts[ext] {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece jpg, jpeg, png veya webp yüklenebilir")
		}

		if err := os.MkdirAll(cfg.ItemImagePath, 0o755); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fotoğraf klasörü oluşturulamadı")
		}

		fileName := fmt.Sprintf("%d_%s%s", item.Code, uuid.NewString(), ext)
		savePath := filepath.Join(cfg.ItemImagePath, fileName)

		if err := c.SaveFile(file, savePath); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fotoğraf kaydedilemedi")
		}

		// Eski fotoğrafı temizle
		if item.ImageURL != "" {
			oldName := filepath.Base(item.ImageURL)
			_ = os.Remove(filepath.Join(cfg.ItemImagePath, oldName))
		}

		item.ImageURL = "/item-images/" + fileName
		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"image_url": item.ImageURL,
		})
	}
}
