package models

import "time"

// PartyType - müşteri/tedarikçi tipi. Credit olanların bakiyesi işlem gördükçe değişir.
type PartyType string

const (
	PartyCash   PartyType = "Cash"
	PartyCredit PartyType = "Credit"
)

type Customer struct {
	ID          uint      `gorm:"primaryKey"`
	CustomerID  uint      `gorm:"uniqueIndex;not null"` // sıralı müşteri numarası, 1001'den başlar
	Name        string    `gorm:"size:100;not null"`
	Address     string    `gorm:"size:255"`
	Phone       string    `gorm:"size:50"`
	Type        PartyType `gorm:"size:10;not null;default:'Cash'"`
	CreditLimit float64   // sadece Credit tipinde anlamlı
	Balance     float64   // açık bakiye (veresiye satış ve iadelerle değişir)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
