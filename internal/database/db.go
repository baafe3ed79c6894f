package database

import (
	"log"

	"pos-backend/internal/config"
	"pos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate - şemayı oluşturur/günceller. Testler aynı listeyi sqlite üzerinde kullanır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.Customer{},
		&models.Vendor{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.PurchaseReturn{},
		&models.PurchaseReturnItem{},
		&models.Sale{},
		&models.SaleItem{},
		&models.SaleReturn{},
		&models.SaleReturnItem{},
		&models.BalanceTransaction{},
		&models.Counter{},
		&models.AuditLog{},
	)
}

// LockForUpdate - transaction içindeki taze okumalarda satır kilidi alır.
// SQLite FOR UPDATE desteklemediği için testlerde kilitsiz devam edilir;
// sqlite'ta transaction zaten tek yazıcıya serileşir.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
