package usecases

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/metering"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type mockHistoryRepository struct {
	mock.Mock
}

func (m *mockHistoryRepository) Append(ctx context.Context, record *subscription.History) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockHistoryRepository) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit int) ([]*subscription.History, error) {
	args := m.Called(ctx, subscriptionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.History), args.Error(1)
}

type mockProcessedEventRepository struct {
	mock.Mock
}

func (m *mockProcessedEventRepository) MarkProcessed(ctx context.Context, event subscription.PaymentEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

type mockCounterRepository struct {
	mock.Mock
}

func (m *mockCounterRepository) Peek(ctx context.Context, userID uint, capability catalog.Capability, periodKey string) (int64, error) {
	args := m.Called(ctx, userID, capability, periodKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCounterRepository) IncrementWithCeiling(ctx context.Context, userID uint, capability catalog.Capability, periodKey string, quantity, ceiling int64) (int64, bool, error) {
	args := m.Called(ctx, userID, capability, periodKey, quantity, ceiling)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockCounterRepository) ListByUserAndPeriod(ctx context.Context, userID uint, periodKey string) ([]*metering.Counter, error) {
	args := m.Called(ctx, userID, periodKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*metering.Counter), args.Error(1)
}

// nopLogger keeps use case tests quiet without asserting on log output.
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
