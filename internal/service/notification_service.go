package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/persistence"
)

const sinkTimeout = 3 * time.Second

// EventSink receives serialized events.
type EventSink interface {
	Name() string
	Send(ctx context.Context, eventType string, payload []byte) error
}

// NotificationService forwards domain events to external sinks.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sinks      []EventSink
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sinks ...EventSink) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		sinks:      sinks,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || len(n.sinks) == 0 {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventOrderCreated,
		events.EventOrderUpdated,
		events.EventOrderArchived,
	} {
		n.dispatcher.Subscribe(eventType, n.forward)
	}
}

// forward runs detached from the request's cancellation but bounded by sinkTimeout.
func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, string(event.Type), payload); err != nil {
			n.logger.Warn("event sink failed",
				zap.String("sink", sink.Name()),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		n.logger.Debug("event forwarded", zap.String("sink", sink.Name()), zap.String("event_id", event.ID))
	}
	return errors.Join(errs...)
}

// RedisSink publishes events on a Redis pub/sub channel.
type RedisSink struct {
	redis   *persistence.Redis
	channel string
}

// NewRedisSink returns nil when redis is disabled.
func NewRedisSink(redis *persistence.Redis, channel string) *RedisSink {
	if !redis.Enabled() {
		return nil
	}
	return &RedisSink{redis: redis, channel: channel}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Send(ctx context.Context, _ string, payload []byte) error {
	return s.redis.Publish(ctx, s.channel, payload)
}
