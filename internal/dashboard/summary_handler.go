package dashboard

import (
	"sort"
	"time"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RevenuePoint struct {
	Label   string  `json:"label"` // gün (YYYY-MM-DD)
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type TopProduct struct {
	ItemCode uint    `json:"item_code"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type SummaryResponse struct {
	TotalRevenue  float64        `json:"total_revenue"`
	OrderCount    int            `json:"order_count"`
	AvgOrderValue float64        `json:"avg_order_value"`
	ItemCount     int64          `json:"item_count"`
	LowStockCount int64          `json:"low_stock_count"`
	TopProducts   []TopProduct   `json:"top_products"`
	Daily         []RevenuePoint `json:"daily"`
}

// GET /api/dashboard/summary?days=7 - ciro, sipariş sayısı, ortalama sepet,
// en çok satan ürünler ve günlük ciro serisi.
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", 7)
		if days <= 0 || days > 90 {
			days = 7
		}

		now := time.Now()
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -(days - 1))

		var sales []models.Sale
		if err := database.DB.Preload("Items").
			Where("sale_date >= ?", from).
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar okunamadı")
		}

		res := SummaryResponse{
			TopProducts: []TopProduct{},
			Daily:       []RevenuePoint{},
		}

		// gün etiketine göre ciro serisi; boş günler de sıfırla görünür
		byDay := make(map[string]*RevenuePoint, days)
		for i := 0; i < days; i++ {
			label := from.AddDate(0, 0, i).Format("2006-01-02")
			byDay[label] = &RevenuePoint{Label: label}
		}

		type productAgg struct {
			code     uint
			name     string
			quantity float64
			revenue  float64
		}
		byProduct := make(map[uint]*productAgg)

		for _, sale := range sales {
			res.TotalRevenue += sale.Total
			res.OrderCount++

			label := sale.SaleDate.Format("2006-01-02")
			if p, ok := byDay[label]; ok {
				p.Revenue += sale.Total
				p.Orders++
			}

			for _, line := range sale.Items {
				agg, ok := byProduct[line.ItemID]
				if !ok {
					agg = &productAgg{code: line.ItemCode, name: line.Name}
					byProduct[line.ItemID] = agg
				}
				agg.quantity += line.Quantity
				agg.revenue += line.Amount
			}
		}

		if res.OrderCount > 0 {
			res.AvgOrderValue = res.TotalRevenue / float64(res.OrderCount)
		}

		for i := 0; i < days; i++ {
			label := from.AddDate(0, 0, i).Format("2006-01-02")
			res.Daily = append(res.Daily, *byDay[label])
		}

		products := make([]TopProduct, 0, len(byProduct))
		for _, agg := range byProduct {
			products = append(products, TopProduct{
				ItemCode: agg.code,
				Name:     agg.name,
				Quantity: agg.quantity,
				Revenue:  agg.revenue,
			})
		}
		sort.Slice(products, func(i, j int) bool { return products[i].Revenue > products[j].Revenue })
		if len(products) > 5 {
			products = products[:5]
		}
		res.TopProducts = products

		if err := database.DB.Model(&models.Item{}).Count(&res.ItemCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün sayısı okunamadı")
		}
		if err := database.DB.Model(&models.Item{}).Where("stock <= ?", 5).Count(&res.LowStockCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kritik stok sayısı okunamadı")
		}

		return c.JSON(res)
	}
}
