package models

import "time"

type Category struct {
	ID         uint   `gorm:"primaryKey"`
	CategoryID uint   `gorm:"uniqueIndex;not null"` // sıralı kategori numarası (sayaçtan)
	Name       string `gorm:"size:100;not null;unique"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
