// Package consumer feeds activities published on Kafka into the pipeline.
package consumer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xslog"
	go_json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// EventActivityIngested is the event type assumed when a record carries no
// event_type header.
const EventActivityIngested = "activity.ingested"

const fetchRetryDelay = time.Second

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages from Kafka.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of an activity event.
type Message struct {
	Topic      string
	Partition  int
	Offset     int64
	Timestamp  time.Time
	EventType  string
	Activities []training.Activity
}

type Option func(*Processor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls messages from Kafka, decodes them, and dispatches to a Handler.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *slog.Logger
}

func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes messages until ctx is cancelled. Malformed messages are
// committed so they cannot block the partition; a message whose handler
// fails is left uncommitted and redelivered.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.ErrorContext(ctx, "fetch failed", xslog.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		logger := p.logger.With(xslog.Topic(msg.Topic), slog.Int("partition", msg.Partition), xslog.Offset(msg.Offset))

		event, err := DecodeMessage(msg)
		if err != nil {
			logger.WarnContext(ctx, "dropping malformed message", xslog.Error(err))
			recordDecodeError(msg.Topic)
			if err := p.reader.CommitMessages(ctx, msg); err != nil {
				logger.ErrorContext(ctx, "commit after decode failure failed", xslog.Error(err))
			}
			continue
		}

		if err := p.handler.Handle(xslog.WithLogger(ctx, logger), event); err != nil {
			logger.ErrorContext(ctx, "handler failed", slog.String("event_type", event.EventType), xslog.Error(err))
			recordHandlerError(event)
			continue
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			logger.ErrorContext(ctx, "commit failed", xslog.Error(err))
		} else {
			recordProcessed(event)
		}
	}
}

type batchPayload struct {
	Activities []training.Activity `json:"activities"`
}

// DecodeMessage decodes an activity event; see DecodeActivities for the
// accepted payloads.
func DecodeMessage(msg kafka.Message) (Message, error) {
	out := Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		EventType: EventActivityIngested,
	}
	if v, ok := headerValue(msg, "event_type"); ok {
		out.EventType = string(v)
	}
	if out.EventType != EventActivityIngested {
		return Message{}, fmt.Errorf("unsupported event type %q", out.EventType)
	}

	activities, err := DecodeActivities(msg.Value)
	if err != nil {
		return Message{}, err
	}
	out.Activities = activities
	return out, nil
}

// DecodeActivities accepts a single activity object, a JSON array of
// activities, or an object with an "activities" array.
func DecodeActivities(data []byte) ([]training.Activity, error) {
	value := bytes.TrimSpace(data)
	if len(value) == 0 {
		return nil, errors.New("empty payload")
	}

	var out []training.Activity
	switch value[0] {
	case '[':
		if err := go_json.Unmarshal(value, &out); err != nil {
			return nil, fmt.Errorf("decode activity array: %w", err)
		}
	case '{':
		var batch batchPayload
		if err := go_json.Unmarshal(value, &batch); err == nil && batch.Activities != nil {
			out = batch.Activities
			break
		}
		var single training.Activity
		if err := go_json.Unmarshal(value, &single); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = []training.Activity{single}
	default:
		return nil, errors.New("payload is not a JSON object or array")
	}

	if len(out) == 0 {
		return nil, errors.New("payload carries no activities")
	}
	return out, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
