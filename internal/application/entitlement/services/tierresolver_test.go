package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	subservices "github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type fakeSubscriptionRepo struct {
	mock.Mock
}

func (m *fakeSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *fakeSubscriptionRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *fakeSubscriptionRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *fakeSubscriptionRepo) GetByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *fakeSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type fakeHistoryRepo struct {
	mock.Mock
}

func (m *fakeHistoryRepo) Append(ctx context.Context, record *subscription.History) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *fakeHistoryRepo) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit int) ([]*subscription.History, error) {
	args := m.Called(ctx, subscriptionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.History), args.Error(1)
}

// fakeCacheManager is an in-memory TierCacheManager with call accounting.
type fakeCacheManager struct {
	snapshots   map[uint]*subservices.TierSnapshot
	getErr      error
	sets        int
	invalidates int
}

func newFakeCacheManager() *fakeCacheManager {
	return &fakeCacheManager{snapshots: make(map[uint]*subservices.TierSnapshot)}
}

func (f *fakeCacheManager) GetSnapshot(_ context.Context, userID uint) (*subservices.TierSnapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.snapshots[userID], nil
}

func (f *fakeCacheManager) SetSnapshot(_ context.Context, userID uint, snapshot *subservices.TierSnapshot) error {
	f.sets++
	f.snapshots[userID] = snapshot
	return nil
}

func (f *fakeCacheManager) Invalidate(_ context.Context, userID uint) error {
	f.invalidates++
	delete(f.snapshots, userID)
	return nil
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any)            {}
func (silentLogger) Info(string, ...any)             {}
func (silentLogger) Warn(string, ...any)             {}
func (silentLogger) Error(string, ...any)            {}
func (silentLogger) Fatal(string, ...any)            {}
func (l silentLogger) With(...any) logger.Interface  { return l }
func (l silentLogger) Named(string) logger.Interface { return l }
func (silentLogger) Debugw(string, ...interface{})   {}
func (silentLogger) Infow(string, ...interface{})    {}
func (silentLogger) Warnw(string, ...interface{})    {}
func (silentLogger) Errorw(string, ...interface{})   {}
func (silentLogger) Fatalw(string, ...interface{})   {}

func resolverCfg() sharedcfg.MembershipConfig {
	return sharedcfg.MembershipConfig{
		BillingIntervalDays: 30,
		GraceWindowDays:     3,
		CancellationMode:    sharedcfg.CancellationImmediate,
	}
}

func newResolverFixture() (*TierResolver, *fakeSubscriptionRepo, *fakeHistoryRepo, *fakeCacheManager) {
	subRepo := new(fakeSubscriptionRepo)
	histRepo := new(fakeHistoryRepo)
	cache := newFakeCacheManager()

	lifecycle := subservices.NewLifecycleService(subRepo, histRepo, resolverCfg(), silentLogger{})
	lifecycle.SetCacheManager(cache)

	resolver := NewTierResolver(lifecycle, resolverCfg(), silentLogger{})
	resolver.SetCacheManager(cache)
	return resolver, subRepo, histRepo, cache
}

func TestResolve_FreshSnapshotSkipsDatabase(t *testing.T) {
	resolver, subRepo, _, cache := newResolverFixture()
	now := time.Now().UTC()
	periodStart := now.Add(-5 * 24 * time.Hour)

	cache.snapshots[1] = &subservices.TierSnapshot{
		Tier:        catalog.TierPremium,
		Status:      vo.StatusActive,
		PeriodStart: periodStart,
		PeriodEnd:   now.Add(25 * 24 * time.Hour),
	}

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierPremium, membership.Tier)
	assert.Equal(t, biztime.DayKey(periodStart), membership.PeriodKey)

	subRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestResolve_StaleSnapshotTriggersDeferredCancellation(t *testing.T) {
	resolver, subRepo, histRepo, cache := newResolverFixture()
	now := time.Now().UTC()

	// Snapshot says the user asked to cancel and the period has ended: the
	// cached entry must not be trusted.
	cache.snapshots[1] = &subservices.TierSnapshot{
		Tier:              catalog.TierPremium,
		Status:            vo.StatusActive,
		PeriodStart:       now.Add(-31 * 24 * time.Hour),
		PeriodEnd:         now.Add(-time.Hour),
		CancelAtPeriodEnd: true,
	}

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(1))
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, "pay_x"))
	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, now.Add(-31*24*time.Hour), now.Add(-time.Hour), "pay_x"))
	require.NoError(t, sub.RequestCancellation("not renewing"))

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(sub, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	histRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierFree, membership.Tier, "deferred cancellation applied on read")
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	subRepo.AssertExpectations(t)
}

func TestResolve_SnapshotPastGraceDeadlineBypassed(t *testing.T) {
	resolver, subRepo, histRepo, cache := newResolverFixture()
	now := time.Now().UTC()

	cache.snapshots[1] = &subservices.TierSnapshot{
		Tier:        catalog.TierPremium,
		Status:      vo.StatusPastDue,
		PeriodStart: now.Add(-40 * 24 * time.Hour),
		PeriodEnd:   now.Add(-10 * 24 * time.Hour),
	}

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(1))
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, "pay_x"))
	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, now.Add(-40*24*time.Hour), now.Add(-10*24*time.Hour), "pay_x"))
	require.NoError(t, sub.FailRenewal())

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(sub, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	histRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierFree, membership.Tier, "grace expired on read")
	assert.Equal(t, vo.StatusCancelled, sub.Status())
}

func TestResolve_SnapshotAtExactGraceDeadlineBypassed(t *testing.T) {
	resolver, subRepo, histRepo, cache := newResolverFixture()
	now := time.Now().UTC()
	periodEnd := now.Add(-3 * 24 * time.Hour) // grace window is 3 days

	cache.snapshots[1] = &subservices.TierSnapshot{
		Tier:        catalog.TierPremium,
		Status:      vo.StatusPastDue,
		PeriodStart: periodEnd.Add(-30 * 24 * time.Hour),
		PeriodEnd:   periodEnd,
	}

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(1))
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, "pay_x"))
	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, periodEnd.Add(-30*24*time.Hour), periodEnd, "pay_x"))
	require.NoError(t, sub.FailRenewal())

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(sub, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	histRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	// Grace expiry fires at the deadline itself, so the snapshot must not
	// be trusted once it is reached.
	assert.Equal(t, catalog.TierFree, membership.Tier)
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	subRepo.AssertExpectations(t)
}

func TestResolve_PastDueWithinGraceTrusted(t *testing.T) {
	resolver, subRepo, _, cache := newResolverFixture()
	now := time.Now().UTC()
	periodStart := now.Add(-31 * 24 * time.Hour)

	cache.snapshots[1] = &subservices.TierSnapshot{
		Tier:        catalog.TierPremium,
		Status:      vo.StatusPastDue,
		PeriodStart: periodStart,
		PeriodEnd:   now.Add(-24 * time.Hour), // grace window is 3 days
	}

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierPremium, membership.Tier, "grace retains the paid tier")
	subRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestResolve_CacheErrorFallsThrough(t *testing.T) {
	resolver, subRepo, _, cache := newResolverFixture()
	now := time.Now().UTC()
	cache.getErr = errors.New("redis down")

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(nil, nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierFree, membership.Tier)
}

func TestResolve_NoRecordResolvesFreeWithoutWrites(t *testing.T) {
	resolver, subRepo, _, cache := newResolverFixture()
	now := time.Now().UTC()

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(nil, nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierFree, membership.Tier)
	assert.Equal(t, biztime.MonthKey(now), membership.PeriodKey)
	assert.Zero(t, cache.sets, "nothing to cache for users without a record")
	subRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolve_CacheMissStoresSnapshot(t *testing.T) {
	resolver, subRepo, _, cache := newResolverFixture()
	now := time.Now().UTC()

	sub, err := subscription.NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(1))
	require.NoError(t, sub.AssignTier(catalog.TierPro, now, now.Add(30*24*time.Hour), "test setup", now))

	subRepo.On("GetByUserID", mock.Anything, uint(1)).Return(sub, nil)

	membership, err := resolver.Resolve(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, catalog.TierPro, membership.Tier)
	assert.Equal(t, 1, cache.sets)
	require.NotNil(t, cache.snapshots[1])
	assert.Equal(t, catalog.TierPro, cache.snapshots[1].Tier)
}
