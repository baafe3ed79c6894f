package models

import "time"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
)

// CardPaymentDetails - kart/veresiye ödeme modalının hesapladığı alanlar.
// net_total = grand_total + old_balance + freight - additional_discount
// balance   = net_total - received
type CardPaymentDetails struct {
	OldBalance         float64 `json:"old_balance"`
	Freight            float64 `json:"freight"`
	AdditionalDiscount float64 `json:"additional_discount"`
	NetTotal           float64 `json:"net_total"`
	Received           float64 `json:"received"`
	Balance            float64 `json:"balance"`
}

type Sale struct {
	ID           uint   `gorm:"primaryKey"`
	InvoiceNo    uint   `gorm:"uniqueIndex;not null"` // checkout transaction'ı içinde sayaçtan atanır
	ReceiptID    string `gorm:"size:36;uniqueIndex;not null"`
	CustomerID   *uint  `gorm:"index"` // nil = walk-in satış
	Customer     *Customer
	CustomerName string    `gorm:"size:100;not null"` // walk-in için "Walk-in"
	CustomerType PartyType `gorm:"size:10;not null;default:'Cash'"`
	SaleDate     time.Time `gorm:"index;not null"`
	Items        []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Subtotal     float64    `gorm:"not null"`
	TaxRate      float64
	Tax          float64
	Discount     float64
	Total        float64            `gorm:"not null"` // subtotal + tax - discount
	PaymentMethod PaymentMethod     `gorm:"size:10;not null"`
	CardPayment  CardPaymentDetails `gorm:"embedded;embeddedPrefix:card_"`
	Status       string             `gorm:"size:20;not null;default:'completed'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SaleItem struct {
	ID       uint    `gorm:"primaryKey"`
	SaleID   uint    `gorm:"index;not null"`
	ItemID   uint    `gorm:"index;not null"`
	Item     Item    `gorm:"foreignKey:ItemID"`
	ItemCode uint    // denormalize ürün kodu
	Name     string  `gorm:"size:100"`
	Quantity float64 `gorm:"not null"`
	Price    float64 `gorm:"not null"` // kasiyer fiyatı elle değiştirebilir
	Amount   float64 `gorm:"not null"` // quantity * price
}
