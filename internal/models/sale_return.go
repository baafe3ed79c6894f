package models

import "time"

type SaleReturn struct {
	ID            uint  `gorm:"primaryKey"`
	SaleID        uint  `gorm:"index;not null"`
	Sale          Sale  `gorm:"foreignKey:SaleID"`
	InvoiceNo     uint  `gorm:"index"` // orijinal satış faturası
	CustomerID    *uint `gorm:"index"`
	CustomerName  string `gorm:"size:100"`
	OriginalTotal float64
	Items         []SaleReturnItem `gorm:"foreignKey:SaleReturnID;constraint:OnDelete:CASCADE"`
	ReturnTotal   float64          `gorm:"not null"`
	Status        string           `gorm:"size:20;not null;default:'completed'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SaleReturnItem struct {
	ID           uint    `gorm:"primaryKey"`
	SaleReturnID uint    `gorm:"index;not null"`
	ItemID       uint    `gorm:"index;not null"`
	ItemCode     uint
	Name         string  `gorm:"size:100"`
	Quantity     float64 `gorm:"not null"` // iade miktarı, orijinal satırı aşamaz
	Price        float64 `gorm:"not null"`
	Amount       float64 `gorm:"not null"`
}
