package sales

import (
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/counter"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutItemRequest struct {
	ItemID   uint     `json:"item_id"`
	Quantity float64  `json:"quantity"`
	Price    *float64 `json:"price"` // kasiyer fiyatı elle değiştirebilir; boşsa satış fiyatı
}

type CardPaymentRequest struct {
	Freight            float64 `json:"freight"`
	AdditionalDiscount float64 `json:"additional_discount"`
	Received           float64 `json:"received"`
}

type CheckoutRequest struct {
	CustomerID    *uint                 `json:"customer_id"` // nil = walk-in
	CustomerName  string                `json:"customer_name"`
	Items         []CheckoutItemRequest `json:"items"`
	TaxRate       float64               `json:"tax_rate"`
	Discount      float64               `json:"discount"`
	PaymentMethod models.PaymentMethod  `json:"payment_method"` // "Cash" veya "Card"
	CardPayment   *CardPaymentRequest   `json:"card_payment"`
}

type SaleItemResponse struct {
	ItemID   uint    `json:"item_id"`
	ItemCode uint    `json:"item_code"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

type SaleResponse struct {
	ID            uint                       `json:"id"`
	InvoiceNo     uint                       `json:"invoice_no"`
	ReceiptID     string                     `json:"receipt_id"`
	CustomerID    *uint                      `json:"customer_id"`
	CustomerName  string                     `json:"customer_name"`
	CustomerType  models.PartyType           `json:"customer_type"`
	SaleDate      string                     `json:"sale_date"`
	Items         []SaleItemResponse         `json:"items"`
	Subtotal      float64                    `json:"subtotal"`
	TaxRate       float64                    `json:"tax_rate"`
	Tax           float64                    `json:"tax"`
	Discount      float64                    `json:"discount"`
	Total         float64                    `json:"total"`
	PaymentMethod models.PaymentMethod       `json:"payment_method"`
	CardPayment   *models.CardPaymentDetails `json:"card_payment_details,omitempty"`
	Status        string                     `json:"status"`
}

func saleResponse(sale models.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, SaleItemResponse{
			ItemID:   it.ItemID,
			ItemCode: it.ItemCode,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Amount:   it.Amount,
		})
	}

	res := SaleResponse{
		ID:            sale.ID,
		InvoiceNo:     sale.InvoiceNo,
		ReceiptID:     sale.ReceiptID,
		CustomerID:    sale.CustomerID,
		CustomerName:  sale.CustomerName,
		CustomerType:  sale.CustomerType,
		SaleDate:      sale.SaleDate.Format("2006-01-02 15:04:05"),
		Items:         items,
		Subtotal:      sale.Subtotal,
		TaxRate:       sale.TaxRate,
		Tax:           sale.Tax,
		Discount:      sale.Discount,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		Status:        sale.Status,
	}
	if sale.PaymentMethod == models.PaymentCard {
		card := sale.CardPayment
		res.CardPayment = &card
	}
	return res
}

// processCheckout - sepeti tek bir all-or-nothing transaction içinde satışa çevirir:
// her satır için taze stok okuması, yetersiz stokta tüm işlemin iptali, fatura
// numarasının sayaçtan atanması, stok düşümü ve veresiye bakiye güncellemesi.
func processCheckout(body CheckoutRequest) (*models.Sale, error) {
	if len(body.Items) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Sepet boş")
	}
	if body.PaymentMethod != models.PaymentCash && body.PaymentMethod != models.PaymentCard {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Ödeme yöntemi 'Cash' veya 'Card' olmalı")
	}
	if body.PaymentMethod == models.PaymentCard && body.CustomerID == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Kart ödemesi için müşteri seçilmeli")
	}
	for _, line := range body.Items {
		if line.ItemID == 0 || line.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Her satırda ürün ve pozitif miktar zorunlu")
		}
		if line.Price != nil && *line.Price <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Fiyat pozitif olmalı")
		}
	}
	if body.TaxRate < 0 {
		body.TaxRate = 0
	}
	if body.Discount < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "İskonto negatif olamaz")
	}

	var sale models.Sale

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		type stockUpdate struct {
			itemID   uint
			newStock float64
		}

		var (
			updates   []stockUpdate
			saleItems []models.SaleItem
			subtotal  float64
		)

		for _, line := range body.Items {
			// Client cache'ine güvenme: stok transaction içinde taze okunur
			var item models.Item
			if err := database.LockForUpdate(tx).First(&item, "id = ?", line.ItemID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Ürün bulunamadı (id %d)", line.ItemID))
			}

			newStock := item.Stock - line.Quantity
			if newStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("\"%s\" için yetersiz stok! Mevcut: %g, Gerekli: %g", item.Name, item.Stock, line.Quantity))
			}

			price := item.SellPrice
			if line.Price != nil {
				price = *line.Price
			}
			amount := price * line.Quantity
			subtotal += amount

			saleItems = append(saleItems, models.SaleItem{
				ItemID:   item.ID,
				ItemCode: item.Code,
				Name:     item.Name,
				Quantity: line.Quantity,
				Price:    price,
				Amount:   amount,
			})
			updates = append(updates, stockUpdate{itemID: item.ID, newStock: newStock})
		}

		tax := subtotal * (body.TaxRate / 100)
		total := subtotal + tax - body.Discount

		customerName := strings.TrimSpace(body.CustomerName)
		customerType := models.PartyCash

		var customer models.Customer
		if body.CustomerID != nil {
			if err := database.LockForUpdate(tx).First(&customer, "id = ?", *body.CustomerID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
			}
			customerName = customer.Name
			customerType = customer.Type
		}
		if customerName == "" {
			customerName = "Walk-in"
		}

		// Fatura numarası "hepsini tara, max+1" yerine aynı transaction içinde
		// sayaçtan atanır; eşzamanlı checkout'lar çakışamaz.
		invoiceNo, err := counter.Next(tx, counter.SaleInvoice)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		sale = models.Sale{
			InvoiceNo:     uint(invoiceNo),
			ReceiptID:     uuid.NewString(),
			CustomerID:    body.CustomerID,
			CustomerName:  customerName,
			CustomerType:  customerType,
			SaleDate:      time.Now(),
			Items:         saleItems,
			Subtotal:      subtotal,
			TaxRate:       body.TaxRate,
			Tax:           tax,
			Discount:      body.Discount,
			Total:         total,
			PaymentMethod: body.PaymentMethod,
			Status:        "completed",
		}

		if body.PaymentMethod == models.PaymentCard {
			card := CardPaymentRequest{}
			if body.CardPayment != nil {
				card = *body.CardPayment
			}

			oldBalance := customer.Balance
			netTotal := total + oldBalance + card.Freight - card.AdditionalDiscount
			balance := netTotal - card.Received

			sale.CardPayment = models.CardPaymentDetails{
				OldBalance:         oldBalance,
				Freight:            card.Freight,
				AdditionalDiscount: card.AdditionalDiscount,
				NetTotal:           netTotal,
				Received:           card.Received,
				Balance:            balance,
			}

			// Yeni açık bakiye = netTotal - alınan; eski bakiye netTotal'ın içinde
			customer.Balance = balance
			if err := tx.Save(&customer).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Müşteri bakiyesi güncellenemedi")
			}

			balanceTxn := models.BalanceTransaction{
				CustomerID:     body.CustomerID,
				Type:           models.BalanceTxnSale,
				Amount:         balance - oldBalance,
				CurrentBalance: balance,
				Description:    fmt.Sprintf("Satış faturası #%d", invoiceNo),
			}
			if err := tx.Create(&balanceTxn).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hareketi kaydedilemedi")
			}
		}

		if err := tx.Create(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		for _, u := range updates {
			if err := tx.Model(&models.Item{}).Where("id = ?", u.itemID).
				Update("stock", u.newStock).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// POST /api/sales/checkout
func CheckoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		sale, err := processCheckout(body)
		if err != nil {
			return err
		}

		userID, userName, uerr := auth.CurrentUser(c)
		if uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Satış faturası #%d, toplam %.2f", sale.InvoiceNo, sale.Total),
				After:       sale,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(saleResponse(*sale))
	}
}

// GET /api/sales?invoice_no=12&customer_name=ali
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{}).Preload("Items")

		if invStr := c.Query("invoice_no"); invStr != "" {
			var inv uint
			if _, err := fmt.Sscan(invStr, &inv); err == nil && inv > 0 {
				dbq = dbq.Where("invoice_no = ?", inv)
			}
		}
		if name := strings.TrimSpace(c.Query("customer_name")); name != "" {
			dbq = dbq.Where("lower(customer_name) LIKE ?", "%"+strings.ToLower(name)+"%")
		}

		var salesList []models.Sale
		if err := dbq.Order("invoice_no desc").Limit(100).Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		res := make([]SaleResponse, 0, len(salesList))
		for _, s := range salesList {
			res = append(res, saleResponse(s))
		}
		return c.JSON(res)
	}
}

// GET /api/sales/:invoiceNo - iade ekranı faturayı numarayla yükler
func GetSaleByInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var inv uint
		if _, err := fmt.Sscan(c.Params("invoiceNo"), &inv); err != nil || inv == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura numarası")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items").Where("invoice_no = ?", inv).First(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Fatura #%d bulunamadı", inv))
		}

		return c.JSON(saleResponse(sale))
	}
}
