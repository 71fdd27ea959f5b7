// Package memory provides in-process implementations of the repository
// interfaces. They are used when no MongoDB URI is configured and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
)

// UserRepository stores users keyed by email.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
}

// NewUserRepository returns an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) UpsertByEmail(ctx context.Context, user *domain.User, now time.Time) (domain.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UpdateResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.Email]; ok {
		modified := int64(0)
		if !existing.LastLoggedIn.Equal(now) {
			modified = 1
		}
		existing.LastLoggedIn = now
		r.users[user.Email] = existing
		return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
	}

	stored := domain.User{
		ID:           domain.NewID(),
		Email:        user.Email,
		Role:         domain.UserRoleCustomer,
		CreatedAt:    now,
		LastLoggedIn: now,
	}
	for k, v := range user.Profile {
		if domain.IsReservedUserField(k) {
			continue
		}
		if stored.Profile == nil {
			stored.Profile = make(map[string]any)
		}
		stored.Profile[k] = v
	}
	r.users[user.Email] = stored

	id := stored.ID
	return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// OrderRepository stores active orders in insertion order.
type OrderRepository struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]storedOrder
}

type storedOrder struct {
	seq   int64
	order domain.Order
}

// NewOrderRepository returns an empty repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]storedOrder)}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (domain.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.InsertResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = domain.NewID()
	r.seq++
	r.orders[order.ID] = storedOrder{seq: r.seq, order: cloneOrder(*order)}
	return domain.InsertResult{Acknowledged: true, InsertedID: order.ID}, nil
}

func (r *OrderRepository) Search(ctx context.Context, term string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(term)
	matches := make([]storedOrder, 0, len(r.orders))
	for _, stored := range r.orders {
		if strings.Contains(strings.ToLower(stored.order.CustomerName), needle) {
			matches = append(matches, stored)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })

	out := make([]domain.Order, 0, len(matches))
	for _, stored := range matches {
		out = append(out, cloneOrder(stored.order))
	}
	return out, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	order := cloneOrder(stored.order)
	return &order, nil
}

func (r *OrderRepository) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (domain.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UpdateResult{}, err
	}
	if !domain.ValidID(id) {
		return domain.UpdateResult{}, repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return domain.UpdateResult{Acknowledged: true}, nil
	}
	sellTime := update.SellTime
	stored.order.Status = update.Status
	stored.order.TotalPay = update.TotalPay
	stored.order.Seller = update.Seller
	stored.order.SellTime = &sellTime
	r.orders[id] = stored
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeleteResult{}, err
	}
	if !domain.ValidID(id) {
		return domain.DeleteResult{}, repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.DeleteResult{Acknowledged: true}, nil
	}
	delete(r.orders, id)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// ArchiveRepository stores archived orders with a unique originalId.
type ArchiveRepository struct {
	mu         sync.Mutex
	byOriginal map[string]domain.ArchivedOrder
}

// NewArchiveRepository returns an empty repository.
func NewArchiveRepository() *ArchiveRepository {
	return &ArchiveRepository{byOriginal: make(map[string]domain.ArchivedOrder)}
}

func (r *ArchiveRepository) Insert(ctx context.Context, archived *domain.ArchivedOrder) (domain.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.InsertResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOriginal[archived.OriginalID]; exists {
		return domain.InsertResult{}, repository.ErrAlreadyArchived
	}
	archived.ID = domain.NewID()
	stored := *archived
	stored.Order = cloneOrder(archived.Order)
	stored.Order.ID = ""
	r.byOriginal[archived.OriginalID] = stored
	return domain.InsertResult{Acknowledged: true, InsertedID: archived.ID}, nil
}

func (r *ArchiveRepository) GetByOriginalID(ctx context.Context, originalID string) (*domain.ArchivedOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	archived, ok := r.byOriginal[originalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	archived.Order = cloneOrder(archived.Order)
	return &archived, nil
}

// Count returns the number of archived orders.
func (r *ArchiveRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOriginal)
}

func cloneOrder(o domain.Order) domain.Order {
	if o.Extra != nil {
		extra := make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			extra[k] = v
		}
		o.Extra = extra
	}
	if o.TotalPay != nil {
		pay := *o.TotalPay
		o.TotalPay = &pay
	}
	if o.SellTime != nil {
		sellTime := *o.SellTime
		o.SellTime = &sellTime
	}
	return o
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.OrderRepository   = (*OrderRepository)(nil)
	_ repository.ArchiveRepository = (*ArchiveRepository)(nil)
)
