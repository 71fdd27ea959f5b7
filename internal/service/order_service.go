package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util/errorutil"
)

const archiveFailedMessage = "failed to delete request"

// OrderService coordinates order workflows.
type OrderService struct {
	orders     repository.OrderRepository
	archives   repository.ArchiveRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	ArchiveRepo repository.ArchiveRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// OrderUpdateInput describes a status/sale change.
type OrderUpdateInput struct {
	ID       string
	Status   domain.OrderStatus
	TotalPay *float64
	Seller   string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		archives:   deps.ArchiveRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// CreateOrder stamps orderTime and the pending status, then stores the order
// with every other caller field untouched.
func (s *OrderService) CreateOrder(ctx context.Context, actor string, order domain.Order) (domain.InsertResult, error) {
	order.ID = ""
	order.OrderTime = s.now()
	order.Status = domain.OrderStatusPending

	res, err := s.orders.Create(ctx, &order)
	if err != nil {
		return domain.InsertResult{}, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventOrderCreated,
		ResourceID: order.ID,
		Actor:      events.Actor{Email: actor},
		Payload:    events.OrderCreatedPayload{CustomerName: order.CustomerName, Status: string(order.Status)},
	})
	return res, nil
}

// ListOrders returns orders whose customer name contains search, ignoring case.
func (s *OrderService) ListOrders(ctx context.Context, search string) ([]domain.Order, error) {
	return s.orders.Search(ctx, search)
}

// GetOrder returns nil without error when id is malformed or unknown.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if !domain.ValidID(id) {
		return nil, nil
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// UpdateOrder sets status, totalPay, seller and sellTime. An unknown id
// yields a zero-match result rather than an error.
func (s *OrderService) UpdateOrder(ctx context.Context, actor string, input OrderUpdateInput) (domain.UpdateResult, error) {
	if !domain.ValidID(input.ID) {
		return domain.UpdateResult{}, apperrors.NewInvalidArgument("invalid order id", map[string]any{"id": input.ID})
	}

	res, err := s.orders.UpdateSale(ctx, input.ID, domain.SaleUpdate{
		Status:   input.Status,
		TotalPay: input.TotalPay,
		Seller:   input.Seller,
		SellTime: s.now(),
	})
	if err != nil {
		return domain.UpdateResult{}, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventOrderUpdated,
		ResourceID: input.ID,
		Actor:      events.Actor{Email: actor},
		Payload: events.OrderUpdatedPayload{
			Status:   string(input.Status),
			Seller:   input.Seller,
			TotalPay: input.TotalPay,
			Matched:  res.MatchedCount > 0,
		},
	})
	return res, nil
}

// ArchiveOrder copies sale into the archive under originalId=id, then deletes
// the active order. The archive write comes first so a failed delete never
// loses data. originalId is unique in the archive, so a retried call reuses
// the earlier copy and only finishes the delete.
func (s *OrderService) ArchiveOrder(ctx context.Context, actor, id string, sale domain.Order) (domain.InsertResult, error) {
	if !domain.ValidID(id) {
		return domain.InsertResult{}, apperrors.NewInvalidArgument("invalid request id", map[string]any{"id": id})
	}

	result, replayed, err := s.writeArchive(ctx, id, sale)
	if err != nil {
		s.logger.Error("archive write failed", zap.String("order_id", id), zap.Error(err))
		return domain.InsertResult{}, apperrors.NewInternalErrorWithMessage(archiveFailedMessage, err)
	}

	if _, err := s.orders.Delete(ctx, id); err != nil {
		s.logger.Error("archived order but active delete failed",
			zap.String("order_id", id),
			zap.String("archive_id", result.InsertedID),
			zap.Error(err))
		return domain.InsertResult{}, apperrors.NewInternalErrorWithMessage(archiveFailedMessage, err)
	}

	s.logger.Info("archived and deleted order",
		zap.String("order_id", id),
		zap.String("archive_id", result.InsertedID),
		zap.Bool("replayed", replayed))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventOrderArchived,
		ResourceID: id,
		Actor:      events.Actor{Email: actor},
		Payload:    events.OrderArchivedPayload{ArchiveID: result.InsertedID, Replayed: replayed},
	})
	return result, nil
}

// writeArchive is the first phase of ArchiveOrder. replayed reports that an
// archive for id already existed.
func (s *OrderService) writeArchive(ctx context.Context, id string, sale domain.Order) (domain.InsertResult, bool, error) {
	existing, err := s.archives.GetByOriginalID(ctx, id)
	switch {
	case err == nil:
		return domain.InsertResult{Acknowledged: true, InsertedID: existing.ID}, true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return domain.InsertResult{}, false, err
	}

	sale.ID = ""
	archived := &domain.ArchivedOrder{
		OriginalID: id,
		DeletedAt:  s.now(),
		Order:      sale,
	}
	res, err := s.archives.Insert(ctx, archived)
	if errors.Is(err, repository.ErrAlreadyArchived) {
		// Lost a race with a concurrent archive of the same order.
		existing, err = s.archives.GetByOriginalID(ctx, id)
		if err != nil {
			return domain.InsertResult{}, false, err
		}
		return domain.InsertResult{Acknowledged: true, InsertedID: existing.ID}, true, nil
	}
	if err != nil {
		return domain.InsertResult{}, false, err
	}
	return res, false, nil
}
