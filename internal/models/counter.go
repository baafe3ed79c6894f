package models

import "time"

// Counter - isimli monoton sayaç satırı. Fatura numarası, ürün kodu gibi
// sıralı numaralar bu satır kilitlenerek, numarayı kullanan belgeyle aynı
// transaction içinde üretilir.
type Counter struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:50;uniqueIndex;not null"`
	Value     uint64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
