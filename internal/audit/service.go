package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"pos-backend/internal/database"
	"pos-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - bir audit log'u geri alır. Sadece master data entity'leri geri
// alınabilir; stok hareketi taşıyan belgeler (satış, alış, iadeler) geri
// alınamaz, onlar için karşı belge (iade) girilmeli.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	if !undoableEntity(log.EntityType) {
		return fmt.Errorf("'%s' kayıtları geri alınamaz", log.EntityType)
	}

	switch log.Action {
	case models.AuditActionCreate:
		// Create ise entity'yi sil
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("entity silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		// Update ise önceki haline geri döndür
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		// Delete ise entity'yi geri oluştur
		if err := recreateEntity(log.EntityType, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	undoLog := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

func undoableEntity(entityType string) bool {
	switch entityType {
	case "category", "item", "customer", "vendor":
		return true
	}
	return false
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "category":
		return database.DB.Delete(&models.Category{}, "id = ?", entityID).Error
	case "item":
		return database.DB.Delete(&models.Item{}, "id = ?", entityID).Error
	case "customer":
		return database.DB.Delete(&models.Customer{}, "id = ?", entityID).Error
	case "vendor":
		return database.DB.Delete(&models.Vendor{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "category":
		var category models.Category
		if err := json.Unmarshal([]byte(dataJSON), &category); err != nil {
			return err
		}
		category.ID = 0 // yeni kayıt olarak oluştur
		return database.DB.Create(&category).Error

	case "item":
		var item models.Item
		if err := json.Unmarshal([]byte(dataJSON), &item); err != nil {
			return err
		}
		item.ID = 0
		return database.DB.Create(&item).Error

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		customer.ID = 0
		return database.DB.Create(&customer).Error

	case "vendor":
		var vendor models.Vendor
		if err := json.Unmarshal([]byte(dataJSON), &vendor); err != nil {
			return err
		}
		vendor.ID = 0
		return database.DB.Create(&vendor).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "category":
		var category models.Category
		if err := json.Unmarshal([]byte(dataJSON), &category); err != nil {
			return err
		}
		return database.DB.Model(&models.Category{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"category_id": category.CategoryID,
			"name":        category.Name,
		}).Error

	case "item":
		var item models.Item
		if err := json.Unmarshal([]byte(dataJSON), &item); err != nil {
			return err
		}
		return database.DB.Model(&models.Item{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"code":           item.Code,
			"name":           item.Name,
			"barcode":        item.Barcode,
			"category_id":    item.CategoryID,
			"unit":           item.Unit,
			"purchase_price": item.PurchasePrice,
			"sell_price":     item.SellPrice,
			"stock":          item.Stock,
			"image_url":      item.ImageURL,
		}).Error

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		return database.DB.Model(&models.Customer{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"customer_id":  customer.CustomerID,
			"name":         customer.Name,
			"address":      customer.Address,
			"phone":        customer.Phone,
			"type":         customer.Type,
			"credit_limit": customer.CreditLimit,
			"balance":      customer.Balance,
		}).Error

	case "vendor":
		var vendor models.Vendor
		if err := json.Unmarshal([]byte(dataJSON), &vendor); err != nil {
			return err
		}
		return database.DB.Model(&models.Vendor{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"vendor_id":    vendor.VendorID,
			"name":         vendor.Name,
			"address":      vendor.Address,
			"phone":        vendor.Phone,
			"type":         vendor.Type,
			"credit_limit": vendor.CreditLimit,
			"balance":      vendor.Balance,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
