package models

import "time"

type BalanceTransactionType string

const (
	BalanceTxnSale           BalanceTransactionType = "Sale"
	BalanceTxnSaleReturn     BalanceTransactionType = "SaleReturn"
	BalanceTxnPurchase       BalanceTransactionType = "Purchase"
	BalanceTxnPurchaseReturn BalanceTransactionType = "PurchaseReturn"
)

// BalanceTransaction - veresiye bakiyesini değiştiren her hareketin kaydı.
// Müşteri veya tedarikçi tarafından tam biri dolu olur.
type BalanceTransaction struct {
	ID             uint                   `gorm:"primaryKey" json:"id"`
	CustomerID     *uint                  `gorm:"index" json:"customer_id"`
	VendorID       *uint                  `gorm:"index" json:"vendor_id"`
	Type           BalanceTransactionType `gorm:"size:20;not null" json:"type"`
	Amount         float64                `gorm:"not null" json:"amount"` // işaretli tutar
	CurrentBalance float64                `json:"current_balance"`        // hareket sonrası bakiye
	Description    string                 `gorm:"size:255" json:"description"`
	CreatedAt      time.Time              `json:"created_at"`
}
