package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/du-phan/resilio/internal/pipeline"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/du-phan/resilio/internal/xslog"
	"go.uber.org/multierr"
)

type Ingester interface {
	Ingest(ctx context.Context, activities []training.Activity) (pipeline.IngestResult, error)
}

// IngestHandler hands decoded activities to the pipeline.
type IngestHandler struct {
	ingester Ingester
}

func NewIngestHandler(ingester Ingester) *IngestHandler {
	return &IngestHandler{ingester: ingester}
}

// Handle ingests msg's activities. Activities without an ID get one derived
// from the record position so a redelivered message replaces rather than
// duplicates them. Rejected activities are logged and dropped; any other
// failure is returned so the message is redelivered.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	activities := make([]training.Activity, len(msg.Activities))
	copy(activities, msg.Activities)
	for i := range activities {
		if activities[i].ID == "" {
			activities[i].ID = fmt.Sprintf("%s-%d-%d-%d", msg.Topic, msg.Partition, msg.Offset, i)
		}
	}

	res, err := h.ingester.Ingest(ctx, activities)
	logger := xslog.FromContext(ctx)

	var retry error
	for _, e := range multierr.Errors(err) {
		if xerrors.IsKind(e, xerrors.KindInvalidInput) {
			logger.WarnContext(ctx, "activity rejected", xslog.Error(e))
			continue
		}
		retry = multierr.Append(retry, e)
	}
	if retry != nil {
		return retry
	}

	logger.InfoContext(ctx, "activities consumed",
		xslog.Count(len(res.Accepted)),
		slog.Int("rejected", res.Rejected),
	)
	return nil
}
