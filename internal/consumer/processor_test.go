package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/du-phan/resilio/internal/pipeline"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const runPayload = `{"id":"r1","athlete_id":"a1","sport":"run","date":"2026-03-01T07:30:00Z","duration_minutes":45,"distance_km":9.2}`

func message(offset int64, value string, headers ...kafka.Header) kafka.Message {
	return kafka.Message{
		Topic:     "activity.ingested",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     []byte(value),
		Headers:   headers,
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{message(10, runPayload, kafka.Header{Key: "event_type", Value: []byte(EventActivityIngested)})},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, EventActivityIngested, handler.last.EventType)
	require.Equal(t, int64(10), handler.last.Offset)
	require.Len(t, handler.last.Activities, 1)
	require.Equal(t, "a1", handler.last.Activities[0].AthleteID)
	require.Equal(t, training.SportRun, handler.last.Activities[0].Sport)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{message(20, runPayload)},
		after:    contextCanceled,
	}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{
			message(30, `not json`),
			message(31, runPayload, kafka.Header{Key: "event_type", Value: []byte("activity.deleted")}),
		},
		after: contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 0, handler.calls)
	require.Equal(t, 2, reader.commitCalls)
}

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantIDs []string
		wantErr bool
	}{
		{name: "single activity", value: runPayload, wantIDs: []string{"r1"}},
		{name: "array", value: `[{"id":"x"},{"id":"y"}]`, wantIDs: []string{"x", "y"}},
		{name: "batch object", value: `{"activities":[{"id":"z"}]}`, wantIDs: []string{"z"}},
		{name: "empty array", value: `[]`, wantErr: true},
		{name: "empty payload", value: "  ", wantErr: true},
		{name: "scalar", value: `42`, wantErr: true},
		{name: "truncated", value: `{"id":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeMessage(message(1, tt.value))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(got.Activities))
			for i, a := range got.Activities {
				ids[i] = a.ID
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestIngestHandler(t *testing.T) {
	t.Parallel()

	rejected := xerrors.Validation(map[string]string{"sport": "unknown sport category"})

	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{name: "accepted"},
		{name: "rejected activities are dropped", err: multierr.Append(fmt.Errorf("activity 1: %w", rejected), nil)},
		{name: "storage failure retries", err: multierr.Append(fmt.Errorf("activity 0: %w", rejected), xerrors.Unavailable()), wantRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ing := &stubIngester{err: tt.err}
			h := NewIngestHandler(ing)

			err := h.Handle(context.Background(), Message{
				Topic:      "activity.ingested",
				Partition:  2,
				Offset:     7,
				Activities: []training.Activity{{ID: "keep"}, {}},
			})
			if tt.wantRetry {
				require.True(t, xerrors.IsKind(err, xerrors.KindUnavailable), "error = %v", err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, ing.got, 2)
			require.Equal(t, "keep", ing.got[0].ID)
			require.Equal(t, "activity.ingested-2-7-1", ing.got[1].ID)
		})
	}
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}

type stubIngester struct {
	got []training.Activity
	err error
}

func (s *stubIngester) Ingest(_ context.Context, activities []training.Activity) (pipeline.IngestResult, error) {
	s.got = activities
	return pipeline.IngestResult{}, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
