package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/config"
)

const (
	connectAttempts = 3
	publishAttempts = 3
	flushTimeout    = 2 * time.Second
)

// NatsPublisher forwards serialized order events to NATS subjects.
type NatsPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNatsPublisher connects with a few retries. It returns nil, nil when no
// URL is configured.
func NewNatsPublisher(ctx context.Context, cfg config.NATSConfig, serviceName string, logger *zap.Logger) (*NatsPublisher, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL not provided; nats event sink disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var lastErr error
	for i := 0; i < connectAttempts; i++ {
		nc, err := nats.Connect(cfg.URL,
			nats.Name(serviceName),
			nats.MaxReconnects(5),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
			}),
		)
		if err == nil {
			logger.Info("connected to nats", zap.String("url", cfg.URL))
			return &NatsPublisher{nc: nc, prefix: cfg.SubjectPrefix, logger: logger}, nil
		}
		lastErr = err
		logger.Warn("failed to connect to nats", zap.Int("attempt", i+1), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to nats: %w", lastErr)
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to nats after %d attempts: %w", connectAttempts, lastErr)
}

// Name identifies the sink in logs.
func (p *NatsPublisher) Name() string {
	return "nats"
}

// Send publishes data on the subject derived from eventType and flushes.
func (p *NatsPublisher) Send(ctx context.Context, eventType string, data []byte) error {
	if p == nil || p.nc == nil {
		return errors.New("nats publisher not configured")
	}
	subject := Subject(p.prefix, eventType)

	var lastErr error
	for i := 0; i < publishAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.nc.Publish(subject, data); err != nil {
			lastErr = err
			p.logger.Warn("nats publish failed", zap.String("subject", subject), zap.Int("attempt", i+1), zap.Error(err))
			continue
		}
		if err := p.nc.FlushTimeout(flushTimeout); err != nil {
			lastErr = err
			p.logger.Warn("nats flush failed", zap.String("subject", subject), zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("publish %s: %w", subject, lastErr)
}

// Close closes the connection.
func (p *NatsPublisher) Close() {
	if p != nil && p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
		p.logger.Info("nats connection closed")
	}
}

// Subject joins prefix and event type into a NATS subject.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
