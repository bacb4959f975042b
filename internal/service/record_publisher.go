package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// RecordPublisher announces admitted records to other systems.
type RecordPublisher interface {
	Publish(ctx context.Context, kind string, payload interface{}) error
}

type recordEnvelope struct {
	Kind       string      `json:"kind"`
	Payload    interface{} `json:"payload"`
	RecordedAt time.Time   `json:"recorded_at"`
}

type natsRecordPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSRecordPublisher publishes to "<subjectBase>.<kind>". A nil connection yields a
// publisher that drops messages.
func NewNATSRecordPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) RecordPublisher {
	return &natsRecordPublisher{
		conn:        conn,
		subjectBase: strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), "."),
		logger:      logger.With().Str("component", "record_publisher").Logger(),
	}
}

func (p *natsRecordPublisher) Publish(ctx context.Context, kind string, payload interface{}) error {
	if p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(recordEnvelope{Kind: kind, Payload: payload, RecordedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	subject := kind
	if p.subjectBase != "" {
		subject = p.subjectBase + "." + kind
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	p.logger.Debug().Str("subject", subject).Msg("record published")
	return nil
}

type noopRecordPublisher struct{}

func (noopRecordPublisher) Publish(context.Context, string, interface{}) error { return nil }
