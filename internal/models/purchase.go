package models

import "time"

type Purchase struct {
	ID              uint   `gorm:"primaryKey"`
	VendorID        uint   `gorm:"index;not null"`
	Vendor          Vendor `gorm:"foreignKey:VendorID"`
	VendorInvoiceNo string `gorm:"size:50"` // tedarikçinin fatura numarası
	PODate          *time.Time
	PurchaseDate    time.Time      `gorm:"index;not null"`
	Items           []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	Subtotal        float64        `gorm:"not null"`
	Discount        float64
	Freight         float64
	NetTotal        float64 `gorm:"not null"` // subtotal - discount + freight
	AmountPaid      float64
	Balance         float64 // net_total - amount_paid
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PurchaseItem struct {
	ID         uint    `gorm:"primaryKey"`
	PurchaseID uint    `gorm:"index;not null"`
	ItemID     uint    `gorm:"index;not null"`
	Item       Item    `gorm:"foreignKey:ItemID"`
	ItemCode   uint    // denormalize ürün kodu
	Name       string  `gorm:"size:100"`
	Quantity   float64 `gorm:"not null"`
	UnitCost   float64 `gorm:"not null"`
	Subtotal   float64 `gorm:"not null"` // quantity * unit_cost
}
