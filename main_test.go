package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	container "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	applog "github.com/corebooks/corebooks/pkg/log"
)

// setupTestSqlite creates an in-memory SQLite DB for testing
func setupTestSqlite(t testing.TB) *gorm.DB {
	t.Helper()

	uniqueDSN := fmt.Sprintf("file::memory:test%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(uniqueDSN), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&Currency{}, &Account{}, &JournalEntry{}, &JournalLine{}, &AuditLog{})
	require.NoError(t, err)

	return db
}

// setupTestPostgres creates a PostgreSQL database using testcontainers
func setupTestPostgres(ctx context.Context, t testing.TB) (*gorm.DB, testcontainers.Container) {
	t.Helper()

	const dbName = "postgres"
	const dbUser = "postgres"
	const dbPassword = "postgres"

	postgresContainer, err := container.Run(ctx,
		"postgres:16-alpine",
		container.WithDatabase(dbName),
		container.WithUsername(dbUser),
		container.WithPassword(dbPassword),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections"),
				wait.ForListeningPort("5432/tcp"),
			)))
	require.NoError(t, err)
	log.Println("Started container:", postgresContainer.GetContainerID())

	url, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	log.Println("PostgreSQL URL:", url)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&Currency{}, &Account{}, &JournalEntry{}, &JournalLine{}, &AuditLog{})
	require.NoError(t, err)

	return db, postgresContainer
}

// setupTestDB chooses SQLite or Postgres based on TEST_DB_DRIVER
func setupTestDB(t testing.TB) (*gorm.DB, func()) {
	t.Helper()

	ctx := context.Background()
	var db *gorm.DB
	var cleanup func()

	switch os.Getenv("TEST_DB_DRIVER") {
	case "postgres":
		log.Println("Using PostgreSQL for testing")
		var pgContainer testcontainers.Container
		db, pgContainer = setupTestPostgres(ctx, t)
		cleanup = func() {
			if pgContainer != nil {
				if err := pgContainer.Terminate(ctx); err != nil {
					log.Printf("Failed to terminate PostgreSQL container: %v", err)
				}
			}
		}
	default:
		log.Println("Using SQLite for testing (default)")
		db = setupTestSqlite(t)
		cleanup = func() {}
	}

	return db, cleanup
}

func testLogger() applog.Logger {
	return applog.NewNoopLogger()
}

func setupTestAccountService(t testing.TB) (*AccountService, *gorm.DB, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	lg := testLogger()
	service := NewAccountService(db, NewAuditStore(db, lg), lg)
	return service, db, cleanup
}

// seedAccount inserts an account row directly, bypassing validation.
func seedAccount(t testing.TB, db *gorm.DB, code, name string, accountType AccountType, parentID *uint, isDetail bool) Account {
	t.Helper()

	account := Account{
		Code:     code,
		Name:     name,
		Type:     accountType,
		ParentID: parentID,
		IsDetail: isDetail,
		IsActive: true,
	}
	require.NoError(t, db.Create(&account).Error)
	return account
}

type testLine struct {
	account uint
	debit   string
	credit  string
}

var testEntrySeq uint

// postEntry inserts a posted journal entry dated on the given day with the
// provided lines.
func postEntry(t testing.TB, db *gorm.DB, date time.Time, lines ...testLine) JournalEntry {
	t.Helper()

	testEntrySeq++
	entry := JournalEntry{
		Number: testEntrySeq,
		Date:   date,
		Status: EntryStatusPosted,
	}
	require.NoError(t, db.Create(&entry).Error)

	for i, line := range lines {
		jl := JournalLine{
			EntryID:    entry.ID,
			LineNumber: uint(i + 1),
			AccountID:  line.account,
			Debit:      requireDecimal(t, line.debit),
			Credit:     requireDecimal(t, line.credit),
		}
		require.NoError(t, db.Create(&jl).Error)
	}
	return entry
}

func requireDecimal(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// requireDecimalEqual compares a decimal against its expected string form.
func requireDecimalEqual(t testing.TB, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, requireDecimal(t, expected).Equal(actual),
		"expected %s, got %s", expected, actual.String())
}
