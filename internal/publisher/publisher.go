package publisher

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/metrics"
)

// Publisher wraps a NATS connection and publishes pipeline events.
// Publishing is best-effort: a run never fails because the bus is down.
type Publisher struct {
	nc      *nats.Conn
	logger  *zap.Logger
	service string
}

// New creates a Publisher. nc may be nil, in which case every Publish is a no-op;
// this keeps the pipeline runnable without a bus (tests, one-shot runs).
func New(nc *nats.Conn, logger *zap.Logger, service string) *Publisher {
	return &Publisher{nc: nc, logger: logger, service: service}
}

// Publish serializes payload and publishes it to subject with correlation headers.
func (p *Publisher) Publish(subject string, payload any) error {
	if p == nil || p.nc == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.Error(err))
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"correlation_id": []string{uuid.NewString()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
			"published_at":   []string{time.Now().UTC().Format(time.RFC3339)},
		},
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Warn("publisher.publish_failed",
			zap.String("subject", subject),
			zap.Error(err))
		metrics.IncError("publisher", "publish_failed")
		return err
	}

	p.logger.Debug("publisher.published",
		zap.String("subject", subject),
		zap.Int("bytes", len(data)))
	return nil
}
