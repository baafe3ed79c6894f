package counter

import (
	"errors"
	"fmt"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"gorm.io/gorm"
)

// Sayaç isimleri. Başlangıç değerleri orijinal numaralandırmayı korur:
// ilk ürün kodu 101, ilk müşteri 1001, ilk tedarikçi 2001, ilk fatura 1.
const (
	SaleInvoice = "sale_invoice"
	ItemCode    = "item_code"
	CustomerID  = "customer_id"
	VendorID    = "vendor_id"
	CategoryID  = "category_id"
)

var seeds = map[string]uint64{
	SaleInvoice: 0,
	ItemCode:    100,
	CustomerID:  1000,
	VendorID:    2000,
	CategoryID:  0,
}

// Next - sayaç satırını kilitleyip bir sonraki numarayı döndürür.
// Numarayı kullanan belgeyle AYNI transaction içinde çağrılmalı; böylece
// eşzamanlı checkout'lar aynı fatura numarasını üretemez.
func Next(tx *gorm.DB, name string) (uint64, error) {
	var ctr models.Counter

	err := database.LockForUpdate(tx).Where("name = ?", name).First(&ctr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctr = models.Counter{Name: name, Value: seeds[name]}
		if err := tx.Create(&ctr).Error; err != nil {
			return 0, fmt.Errorf("sayaç oluşturulamadı (%s): %w", name, err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("sayaç okunamadı (%s): %w", name, err)
	}

	ctr.Value++
	if err := tx.Save(&ctr).Error; err != nil {
		return 0, fmt.Errorf("sayaç güncellenemedi (%s): %w", name, err)
	}

	return ctr.Value, nil
}
