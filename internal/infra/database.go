package infra

import (
	"fmt"

	"chicpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ledgerTables hold append-only financial records. On PostgreSQL a trigger
// rejects UPDATE and DELETE on them.
var ledgerTables = []string{
	"sales", "sale_items", "adjustments", "gifts", "gift_items",
	"expenses", "purchases", "attendances", "daily_closures", "audit_logs",
	"accounting_settings",
}

// NewDatabase opens the PostgreSQL connection, migrates the schema and
// installs the append-only guards.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table. Dialect-specific patches only
// run on PostgreSQL, so the same call prepares an in-memory SQLite for tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Attendance{},
		&model.Adjustment{},
		&model.Gift{},
		&model.GiftItem{},
		&model.Expense{},
		&model.Purchase{},
		&model.DailyClosure{},
		&model.AuditLog{},
		&model.AccountingSettings{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"append-only guard function", `
CREATE OR REPLACE FUNCTION chicpos_reject_change() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'tabela % aceita apenas inserções', TG_TABLE_NAME;
END;
$$ LANGUAGE plpgsql`},
		{"attendances by seller and time", `CREATE INDEX IF NOT EXISTS idx_attendances_seller_time ON attendances (seller_id, occurred_at)`},
	}
	for _, table := range ledgerTables {
		patches = append(patches, struct{ descr, sql string }{
			"append-only trigger on " + table,
			fmt.Sprintf(`
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = '%[1]s_append_only') THEN
    CREATE TRIGGER %[1]s_append_only BEFORE UPDATE OR DELETE ON %[1]s
      FOR EACH ROW EXECUTE FUNCTION chicpos_reject_change();
  END IF;
END $$`, table),
		})
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
