package migrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "astrobot-migrations-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(filepath.Join(dir, "test.log"), 1, 1, 1, false, "single", "error")
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// createPreUpgradeUsersTable reproduces the schema shipped before the
// surrogate-key upgrade: keyed directly by the platform id, no external_id.
func createPreUpgradeUsersTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`
		CREATE TABLE users (
			user_id INTEGER PRIMARY KEY,
			birth_date TEXT,
			birth_time TEXT,
			birth_place TEXT,
			phone TEXT,
			email TEXT,
			thread_id TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`).Error
	if err != nil {
		t.Fatalf("create pre-upgrade table: %v", err)
	}
}

func TestAdoptOnFreshStore(t *testing.T) {
	db := openTestDB(t)

	if err := AdoptLegacyUsers(db); err != nil {
		t.Fatalf("AdoptLegacyUsers on empty store: %v", err)
	}
	if db.Migrator().HasTable("users_legacy") {
		t.Fatal("no legacy table must appear on a fresh store")
	}
	if err := db.AutoMigrate(RegisterTables()...); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if !db.Migrator().HasTable("users") || !db.Migrator().HasTable("user_requests") {
		t.Fatal("expected current tables after AutoMigrate")
	}
}

func TestAdoptOnCurrentSchemaIsNoop(t *testing.T) {
	db := openTestDB(t)
	if err := db.AutoMigrate(RegisterTables()...); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	seeded := user.User{ExternalID: 11}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed current row: %v", err)
	}

	// Second startup.
	if err := AdoptLegacyUsers(db); err != nil {
		t.Fatalf("AdoptLegacyUsers: %v", err)
	}
	if err := db.AutoMigrate(RegisterTables()...); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}

	if db.Migrator().HasTable("users_legacy") {
		t.Fatal("startup on a current-schema store must not create a legacy table")
	}
	var got user.User
	if err := db.Where("external_id = ?", 11).First(&got).Error; err != nil {
		t.Fatalf("existing row lost: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("existing row changed identity: %d vs %d", got.ID, seeded.ID)
	}
}

func TestAdoptRenamesPreUpgradeTable(t *testing.T) {
	db := openTestDB(t)
	createPreUpgradeUsersTable(t, db)
	err := db.Exec(`INSERT INTO users (user_id, birth_date, birth_time, birth_place)
		VALUES (900, '20.07.1985', '06:45', 'Санкт-Петербург')`).Error
	if err != nil {
		t.Fatalf("seed pre-upgrade row: %v", err)
	}

	if err := AdoptLegacyUsers(db); err != nil {
		t.Fatalf("AdoptLegacyUsers: %v", err)
	}
	if err := db.AutoMigrate(RegisterTables()...); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// New users table starts empty, old data is intact under the legacy name.
	var newCount, legacyCount int64
	db.Raw(`SELECT COUNT(*) FROM users`).Scan(&newCount)
	db.Raw(`SELECT COUNT(*) FROM users_legacy`).Scan(&legacyCount)
	if newCount != 0 {
		t.Fatalf("new users table must start empty, has %d rows", newCount)
	}
	if legacyCount != 1 {
		t.Fatalf("legacy table must keep its rows, has %d", legacyCount)
	}

	// First contact after the upgrade serves the old birth data.
	repo := repositories.NewUserRepositoryWithDB(db)
	u, err := repo.GetOrCreate(context.Background(), 900)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.BirthDate == nil || *u.BirthDate != "20.07.1985" {
		t.Errorf("birth data not carried over: %v", u.BirthDate)
	}
	if !u.HasFullData() {
		t.Error("expected full data after lazy migration")
	}
}

func TestAdoptIsIdempotentAcrossStartups(t *testing.T) {
	db := openTestDB(t)
	createPreUpgradeUsersTable(t, db)

	for i := 0; i < 3; i++ {
		if err := AdoptLegacyUsers(db); err != nil {
			t.Fatalf("startup %d: %v", i, err)
		}
		if err := db.AutoMigrate(RegisterTables()...); err != nil {
			t.Fatalf("startup %d AutoMigrate: %v", i, err)
		}
	}

	if !db.Migrator().HasTable("users_legacy") {
		t.Fatal("legacy table missing after adoption")
	}
}

func TestAdoptRefusesDoubleLegacyState(t *testing.T) {
	db := openTestDB(t)
	createPreUpgradeUsersTable(t, db)
	if err := db.Exec(`CREATE TABLE users_legacy (user_id INTEGER PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("create occupying legacy table: %v", err)
	}

	err := AdoptLegacyUsers(db)
	if !errors.Is(err, errs.ErrMigrationIntegrity) {
		t.Fatalf("expected ErrMigrationIntegrity, got %v", err)
	}
	// Nothing was renamed or dropped.
	if !db.Migrator().HasTable("users") || !db.Migrator().HasTable("users_legacy") {
		t.Fatal("tables must be left untouched on integrity failure")
	}
}
