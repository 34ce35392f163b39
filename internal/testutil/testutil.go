package testutil

import (
	"fmt"
	"testing"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// catalogTables lists tables children first so deletes never trip a
// foreign key.
var catalogTables = []string{"products", "shops", "users"}

type TestDatabase struct {
	DB *gorm.DB
}

type TestRedis struct {
	Server *miniredis.Miniredis
	URL    string
}

// SetupTestDatabase opens a private in-memory SQLite catalog with the
// procurement schema applied.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	// one connection, so concurrent shop provisioning contends the way it
	// would on row locks instead of failing with SQLITE_BUSY
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Shop{}, &models.Product{}), "migrate schema")
	return &TestDatabase{DB: db}
}

func (td *TestDatabase) Teardown(t *testing.T) {
	if sqlDB, err := td.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			t.Logf("close test database: %v", err)
		}
	}
}

// SetupTestRedis starts a miniredis server for the session denylist and the
// rate limiter.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err, "start miniredis")
	return &TestRedis{Server: server, URL: "redis://" + server.Addr()}
}

func (tr *TestRedis) Teardown(t *testing.T) {
	tr.Server.Close()
}

// CleanDatabase empties every catalog table between tests.
func CleanDatabase(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, table := range catalogTables {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error, "clean %s", table)
	}
}

// CountShopsForUser returns how many shops reference userID.
func CountShopsForUser(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Shop{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}
