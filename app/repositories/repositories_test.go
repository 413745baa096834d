package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/request"
	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "astrobot-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(filepath.Join(dir, "test.log"), 1, 1, 1, false, "single", "error")
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestDB(t *testing.T) *gorm.DB {
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
	// A single connection keeps the in-memory database alive and stable.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&user.User{}, &request.Request{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func createLegacyTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`
		CREATE TABLE users_legacy (
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
		t.Fatalf("create legacy table: %v", err)
	}
}

func strptr(s string) *string { return &s }

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, 4242)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, 4242)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("surrogate keys differ: %d vs %d", first.ID, second.ID)
	}
	if first.ExternalID != second.ExternalID {
		t.Fatalf("external ids differ: %d vs %d", first.ExternalID, second.ExternalID)
	}
	if first.ID == 0 {
		t.Fatal("surrogate key was not assigned")
	}
}

func TestGetOrCreateMigratesLegacyRow(t *testing.T) {
	db := newTestDB(t)
	createLegacyTable(t, db)
	err := db.Exec(`INSERT INTO users_legacy (user_id, birth_date, birth_time, birth_place, phone, email, thread_id)
		VALUES (777, '15.03.1990', '14:30', 'Москва, Россия', '+79990001122', 'user@example.com', 'thread_old')`).Error
	if err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	u, err := repo.GetOrCreate(ctx, 777)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.BirthDate == nil || *u.BirthDate != "15.03.1990" {
		t.Errorf("birth date not migrated: %v", u.BirthDate)
	}
	if u.BirthTime == nil || *u.BirthTime != "14:30" {
		t.Errorf("birth time not migrated: %v", u.BirthTime)
	}
	if u.BirthPlace == nil || *u.BirthPlace != "Москва, Россия" {
		t.Errorf("birth place not migrated: %v", u.BirthPlace)
	}
	if u.Phone == nil || *u.Phone != "+79990001122" {
		t.Errorf("phone not migrated: %v", u.Phone)
	}
	if u.ThreadID != nil {
		t.Errorf("thread id must not cross schema epochs, got %q", *u.ThreadID)
	}

	// The legacy row survives unchanged.
	var legacy struct {
		BirthDate string
		ThreadID  string
	}
	err = db.Raw(`SELECT birth_date, thread_id FROM users_legacy WHERE user_id = 777`).Scan(&legacy).Error
	if err != nil {
		t.Fatalf("read legacy row back: %v", err)
	}
	if legacy.BirthDate != "15.03.1990" || legacy.ThreadID != "thread_old" {
		t.Errorf("legacy row was modified: %+v", legacy)
	}

	var count int64
	db.Raw(`SELECT COUNT(*) FROM users_legacy`).Scan(&count)
	if count != 1 {
		t.Errorf("legacy row count changed: %d", count)
	}
}

func TestGetOrCreateMigratesPartialLegacyRow(t *testing.T) {
	db := newTestDB(t)
	createLegacyTable(t, db)
	err := db.Exec(`INSERT INTO users_legacy (user_id, birth_date) VALUES (5, '01.01.2000')`).Error
	if err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	repo := NewUserRepositoryWithDB(db)
	u, err := repo.GetOrCreate(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.BirthDate == nil || *u.BirthDate != "01.01.2000" {
		t.Errorf("birth date not migrated: %v", u.BirthDate)
	}
	// Unset legacy fields stay unset, no guessed defaults.
	if u.BirthTime != nil || u.BirthPlace != nil {
		t.Errorf("unset legacy fields must stay unset: %v %v", u.BirthTime, u.BirthPlace)
	}
	if u.HasFullData() {
		t.Error("partially migrated user must not report full data")
	}
}

func TestGetOrCreateConcurrentSameIdentity(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]uint64, callers)
	errsCh := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := repo.GetOrCreate(ctx, 31337)
			if err != nil {
				errsCh[i] = err
				return
			}
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errsCh {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d observed a different row: %d vs %d", i, ids[i], ids[0])
		}
	}

	var count int64
	db.Model(&user.User{}).Where("external_id = ?", 31337).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestUpdateBirthDataRequiresExistingRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	err := repo.UpdateBirthData(ctx, 1, strptr("15.03.1990"), nil, nil)
	if !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := repo.GetOrCreate(ctx, 1); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := repo.UpdateBirthData(ctx, 1, strptr("15.03.1990"), strptr("14:30"), strptr("Москва")); err != nil {
		t.Fatalf("UpdateBirthData: %v", err)
	}

	data, err := repo.GetBirthData(ctx, 1)
	if err != nil {
		t.Fatalf("GetBirthData: %v", err)
	}
	if !data.Complete {
		t.Error("expected complete birth data")
	}
}

func TestGetBirthDataIncomplete(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, 9); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := repo.UpdateBirthData(ctx, 9, strptr("01.01.1990"), nil, nil); err != nil {
		t.Fatalf("UpdateBirthData: %v", err)
	}

	data, err := repo.GetBirthData(ctx, 9)
	if err != nil {
		t.Fatalf("GetBirthData: %v", err)
	}
	if data.Complete {
		t.Error("a single field must not count as complete")
	}
	if data.BirthDate == nil || *data.BirthDate != "01.01.1990" {
		t.Errorf("unexpected birth date: %v", data.BirthDate)
	}
}

func TestBindThreadIsSetOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, 55); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	got, err := repo.BindThread(ctx, 55, "thread_A")
	if err != nil {
		t.Fatalf("first BindThread: %v", err)
	}
	if got != "thread_A" {
		t.Fatalf("expected thread_A, got %q", got)
	}

	got, err = repo.BindThread(ctx, 55, "thread_B")
	if err != nil {
		t.Fatalf("second BindThread: %v", err)
	}
	if got != "thread_A" {
		t.Fatalf("second bind must keep the first thread, got %q", got)
	}
}

func TestSetProAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, 12); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := repo.SetPro(ctx, 12, true); err != nil {
		t.Fatalf("SetPro: %v", err)
	}
	u, err := repo.GetUser(ctx, 12)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !u.IsPro {
		t.Error("expected is_pro = true")
	}

	if err := repo.DeleteByExternalID(ctx, 12); err != nil {
		t.Fatalf("DeleteByExternalID: %v", err)
	}
	if _, err := repo.GetUser(ctx, 12); !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := repo.DeleteByExternalID(ctx, 12); !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("double delete must report ErrUserNotFound, got %v", err)
	}
}

func TestCompatAliases(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepositoryWithDB(db)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, 100); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if repo.UserHasFullData(ctx, 100) {
		t.Error("fresh user must not have full data")
	}
	if err := repo.SaveUserData(ctx, 100, "02.02.1992", "10:00", "Казань"); err != nil {
		t.Fatalf("SaveUserData: %v", err)
	}
	if !repo.UserHasFullData(ctx, 100) {
		t.Error("expected full data after SaveUserData")
	}

	if err := repo.UpdateUser(ctx, 100, nil, nil, nil, strptr("+70000000000"), nil); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	u, err := repo.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Phone == nil || *u.Phone != "+70000000000" {
		t.Errorf("phone not updated: %v", u.Phone)
	}
	if u.BirthDate == nil || *u.BirthDate != "02.02.1992" {
		t.Errorf("birth date lost: %v", u.BirthDate)
	}
}

func TestRequestLogAppendAndHistory(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepositoryWithDB(db)
	requests := NewRequestRepositoryWithDB(db)
	ctx := context.Background()

	u, err := users.GetOrCreate(ctx, 2001)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if err := requests.Log(ctx, u.ID, request.TypeToday, nil, true, 1530); err != nil {
		t.Fatalf("Log today: %v", err)
	}
	topic := "career"
	if err := requests.Log(ctx, u.ID, request.TypeTopic, &topic, true, 2100); err != nil {
		t.Fatalf("Log topic: %v", err)
	}
	// A failed zero-duration attempt must still be retrievable verbatim.
	if err := requests.Log(ctx, u.ID, request.TypeCheckAction, nil, false, 0); err != nil {
		t.Fatalf("Log failed attempt: %v", err)
	}

	history, err := requests.HistoryByUserID(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("HistoryByUserID: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
	if history[0].Type != request.TypeToday || history[2].Type != request.TypeCheckAction {
		t.Errorf("history out of chronological order: %v, %v", history[0].Type, history[2].Type)
	}
	last := history[2]
	if last.Success || last.ResponseTimeMs != 0 {
		t.Errorf("failed attempt fields not preserved: success=%v ms=%d", last.Success, last.ResponseTimeMs)
	}
	if history[1].Text == nil || *history[1].Text != "career" {
		t.Errorf("request text not preserved: %v", history[1].Text)
	}
}

func TestRequestLogRejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	requests := NewRequestRepositoryWithDB(db)

	err := requests.Log(context.Background(), 1, request.Type("horoscope"), nil, true, 10)
	if !errors.Is(err, errs.ErrInvalidRequestType) {
		t.Fatalf("expected ErrInvalidRequestType, got %v", err)
	}
}

func TestRequestStats(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepositoryWithDB(db)
	requests := NewRequestRepositoryWithDB(db)
	ctx := context.Background()

	u, err := users.GetOrCreate(ctx, 3001)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := requests.Log(ctx, u.ID, request.TypeToday, nil, true, 1000); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := requests.Log(ctx, u.ID, request.TypeTomorrow, nil, false, 3000); err != nil {
		t.Fatalf("Log: %v", err)
	}

	stats, err := requests.StatsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("StatsSince: %v", err)
	}
	if stats.Total != 2 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.AvgResponseTimeMs != 2000 {
		t.Errorf("expected avg 2000, got %v", stats.AvgResponseTimeMs)
	}
}
