package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UpsertByEmail(ctx context.Context, user *domain.User, now time.Time) (domain.UpdateResult, error) {
	args := m.Called(ctx, user, now)
	return args.Get(0).(domain.UpdateResult), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) (domain.InsertResult, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.InsertResult), args.Error(1)
}

func (m *MockOrderRepository) Search(ctx context.Context, term string) ([]domain.Order, error) {
	args := m.Called(ctx, term)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (domain.UpdateResult, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(domain.UpdateResult), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.DeleteResult), args.Error(1)
}

type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Insert(ctx context.Context, archived *domain.ArchivedOrder) (domain.InsertResult, error) {
	args := m.Called(ctx, archived)
	return args.Get(0).(domain.InsertResult), args.Error(1)
}

func (m *MockArchiveRepository) GetByOriginalID(ctx context.Context, originalID string) (*domain.ArchivedOrder, error) {
	args := m.Called(ctx, originalID)
	a, _ := args.Get(0).(*domain.ArchivedOrder)
	return a, args.Error(1)
}

var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.OrderRepository   = (*MockOrderRepository)(nil)
	_ repository.ArchiveRepository = (*MockArchiveRepository)(nil)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
