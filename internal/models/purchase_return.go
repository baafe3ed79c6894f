package models

import "time"

type PurchaseReturn struct {
	ID          uint     `gorm:"primaryKey"`
	PurchaseID  uint     `gorm:"index;not null"`
	Purchase    Purchase `gorm:"foreignKey:PurchaseID"`
	VendorID    uint     `gorm:"index;not null"`
	VendorName  string   `gorm:"size:100"`
	Items       []PurchaseReturnItem `gorm:"foreignKey:PurchaseReturnID;constraint:OnDelete:CASCADE"`
	RefundTotal float64              `gorm:"not null"`
	Status      string               `gorm:"size:20;not null;default:'completed'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PurchaseReturnItem struct {
	ID               uint    `gorm:"primaryKey"`
	PurchaseReturnID uint    `gorm:"index;not null"`
	ItemID           uint    `gorm:"index;not null"`
	ItemCode         uint
	Name             string  `gorm:"size:100"`
	Quantity         float64 `gorm:"not null"`
	UnitCost         float64 `gorm:"not null"`
	Amount           float64 `gorm:"not null"`
}
