package models

import "time"

type Item struct {
	ID            uint      `gorm:"primaryKey"`
	Code          uint      `gorm:"uniqueIndex;not null"` // sıralı ürün kodu, 101'den başlar
	Name          string    `gorm:"size:100;not null"`
	Barcode       string    `gorm:"size:50;index"` // opsiyonel; doluysa tekil (kayıt öncesi kontrol)
	CategoryID    *uint     `gorm:"index"`         // nil = kategorisiz
	Category      *Category `gorm:"foreignKey:CategoryID"`
	Unit          string    `gorm:"size:20;not null;default:'Pcs'"` // Pcs, Kg, Box, Ltr, Dozen
	PurchasePrice float64   `gorm:"not null"`
	SellPrice     float64   `gorm:"not null"`
	Stock         float64   `gorm:"not null;default:0"` // satışla azalır, alış/satış iadesiyle artar
	ImageURL      string    `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
