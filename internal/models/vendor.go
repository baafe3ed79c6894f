package models

import "time"

// Vendor - alış tarafındaki Customer karşılığı.
type Vendor struct {
	ID          uint      `gorm:"primaryKey"`
	VendorID    uint      `gorm:"uniqueIndex;not null"` // sıralı tedarikçi numarası, 2001'den başlar
	Name        string    `gorm:"size:100;not null"`
	Address     string    `gorm:"size:255"`
	Phone       string    `gorm:"size:50"`
	Type        PartyType `gorm:"size:10;not null;default:'Cash'"`
	CreditLimit float64
	Balance     float64 // ödenmemiş alış bakiyesi
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
