package main

import (
	"log"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/config"
	"pos-backend/internal/dashboard"
	"pos-backend/internal/database"
	"pos-backend/internal/inventory"
	"pos-backend/internal/masterdata"
	"pos-backend/internal/models"
	"pos-backend/internal/purchase"
	"pos-backend/internal/reports"
	"pos-backend/internal/returns"
	"pos-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Ürün fotoğrafları
	app.Static("/item-images", cfg.ItemImagePath)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Kategoriler
	protected.Get("/categories", masterdata.ListCategoriesHandler())
	protected.Post("/categories", masterdata.CreateCategoryHandler())

	// Müşteriler
	protected.Get("/customers", masterdata.ListCustomersHandler())
	protected.Post("/customers", masterdata.CreateCustomerHandler())

	// Tedarikçiler
	protected.Get("/vendors", masterdata.ListVendorsHandler())
	protected.Post("/vendors", masterdata.CreateVendorHandler())

	// Ürünler
	protected.Get("/items", inventory.ListItemsHandler())
	protected.Post("/items", inventory.CreateItemHandler())
	protected.Put("/items/:id", inventory.UpdateItemHandler())
	protected.Post("/items/:id/image", inventory.UploadItemImageHandler(cfg))

	// Satış / kasa
	protected.Post("/sales/checkout", sales.CheckoutHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:invoiceNo", sales.GetSaleByInvoiceHandler())

	// Alışlar
	protected.Post("/purchases", purchase.CreatePurchaseHandler())
	protected.Get("/purchases", purchase.ListPurchasesHandler())
	protected.Put("/purchases/:id", purchase.UpdatePurchaseHandler())

	// İadeler
	protected.Post("/sale-returns", returns.CreateSaleReturnHandler())
	protected.Get("/sale-returns", returns.ListSaleReturnsHandler())
	protected.Post("/purchase-returns", returns.CreatePurchaseReturnHandler())
	protected.Get("/purchase-returns", returns.ListPurchaseReturnsHandler())

	// Raporlar
	protected.Get("/reports/inventory", reports.InventoryReportHandler())
	protected.Get("/reports/sales", reports.SaleRegisterHandler())
	protected.Get("/reports/sales/csv", reports.SaleRegisterCSVHandler())
	protected.Get("/reports/purchases", reports.PurchaseRegisterHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Admin routes
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Delete("/categories/:id", masterdata.DeleteCategoryHandler())
	adminRoutes.Delete("/customers/:id", masterdata.DeleteCustomerHandler())
	adminRoutes.Delete("/vendors/:id", masterdata.DeleteVendorHandler())
	adminRoutes.Delete("/items/:id", inventory.DeleteItemHandler())
	adminRoutes.Delete("/purchases/:id", purchase.DeletePurchaseHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
