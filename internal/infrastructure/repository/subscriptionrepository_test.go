package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)            {}
func (nopLogger) Info(string, ...any)             {}
func (nopLogger) Warn(string, ...any)             {}
func (nopLogger) Error(string, ...any)            {}
func (nopLogger) Fatal(string, ...any)            {}
func (l nopLogger) With(...any) logger.Interface  { return l }
func (l nopLogger) Named(string) logger.Interface { return l }
func (nopLogger) Debugw(string, ...interface{})   {}
func (nopLogger) Infow(string, ...interface{})    {}
func (nopLogger) Warnw(string, ...interface{})    {}
func (nopLogger) Errorw(string, ...interface{})   {}
func (nopLogger) Fatalw(string, ...interface{})   {}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&models.SubscriptionModel{}))
	return gdb
}

func TestSubscriptionRepository_CreateAndUpdateRoundTrip(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), nopLogger{})
	ctx := context.Background()

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))
	require.NotZero(t, sub.ID())

	require.NoError(t, sub.StartCheckout(catalog.TierPremium, "pay_roundtrip"))
	require.NoError(t, repo.Update(ctx, sub))

	loaded, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, sub.SID(), loaded.SID())
	assert.Equal(t, catalog.TierPremium, loaded.PendingTier())
	assert.Equal(t, sub.Version(), loaded.Version())
}

func TestSubscriptionRepository_UpdateRejectsConcurrentWriter(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), nopLogger{})
	ctx := context.Background()

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	first, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	second, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, first.StartCheckout(catalog.TierPremium, "pay_first"))
	require.NoError(t, repo.Update(ctx, first))

	// The second writer loaded the same version and must lose.
	require.NoError(t, second.StartCheckout(catalog.TierPro, "pay_second"))
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified concurrently")

	current, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierPremium, current.PendingTier())
	assert.Equal(t, first.Version(), current.Version())
}

func TestSubscriptionRepository_GetByUserIDMiss(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), nopLogger{})

	loaded, err := repo.GetByUserID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
