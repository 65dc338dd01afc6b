package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/pipeline"
	"github.com/du-phan/resilio/internal/risk"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/du-phan/resilio/internal/xhttp"
	"github.com/du-phan/resilio/internal/xslog"
	"go.uber.org/multierr"
)

type Service interface {
	UpsertAthlete(ctx context.Context, a *training.AthleteContext) error
	Ingest(ctx context.Context, activities []training.Activity) (pipeline.IngestResult, error)
	RecordCheckIn(ctx context.Context, c *training.CheckIn) error
	Report(ctx context.Context, athleteID string, date time.Time) (*pipeline.DayReport, error)
	History(ctx context.Context, athleteID string, from, through time.Time) ([]pipeline.DayReport, error)
	Assess(ctx context.Context, athleteID string, date time.Time, planned ...guardrail.Violation) (*risk.Assessment, error)
	Guardrails(ctx context.Context, athleteID string, week *guardrail.Week) ([]guardrail.Violation, error)
}

type Training struct {
	service Service
	now     func() time.Time
}

func NewTraining(service Service, now func() time.Time) *Training {
	if now == nil {
		now = time.Now
	}
	return &Training{service: service, now: now}
}

// HandleUpsertAthlete handles POST /api/athletes.
func (h *Training) HandleUpsertAthlete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var athlete training.AthleteContext
	if err := decode(r, &athlete); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	if err := h.service.UpsertAthlete(ctx, &athlete); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	xhttp.WriteOK(w, athlete)
}

type ingestRequest struct {
	Activities []training.Activity `json:"activities"`
}

type ingestResponse struct {
	pipeline.IngestResult
	Errors []string `json:"errors,omitempty"`
}

// HandleIngest handles POST /api/athletes/{id}/activities. Activities that
// fail validation are reported alongside the accepted ones.
func (h *Training) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	athleteID := r.PathValue("id")

	var req ingestRequest
	if err := decode(r, &req); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	if len(req.Activities) == 0 {
		xerrors.WriteError(ctx, w, xerrors.Validation(map[string]string{"activities": "must not be empty"}))
		return
	}
	for i := range req.Activities {
		a := &req.Activities[i]
		if a.AthleteID == "" {
			a.AthleteID = athleteID
		}
		if a.AthleteID != athleteID {
			xerrors.WriteError(ctx, w, xerrors.Validation(map[string]string{
				fmt.Sprintf("activities[%d].athlete_id", i): "does not match the athlete in the path",
			}))
			return
		}
	}

	result, err := h.service.Ingest(ctx, req.Activities)
	if err != nil && len(result.Accepted) == 0 {
		xerrors.WriteError(ctx, w, err)
		return
	}

	resp := ingestResponse{IngestResult: result}
	for _, e := range multierr.Errors(err) {
		resp.Errors = append(resp.Errors, e.Error())
	}
	xslog.FromContext(ctx).InfoContext(ctx, "activities ingested",
		xslog.AthleteID(athleteID),
		xslog.Count(len(result.Accepted)),
	)
	xhttp.WriteOK(w, resp)
}

// HandleCheckIn handles POST /api/athletes/{id}/checkins.
func (h *Training) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c training.CheckIn
	if err := decode(r, &c); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	c.AthleteID = r.PathValue("id")
	if err := h.service.RecordCheckIn(ctx, &c); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	xhttp.WriteOK(w, c)
}

// HandleMetrics handles GET /api/athletes/{id}/metrics?date=YYYY-MM-DD.
// date defaults to today.
func (h *Training) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := h.queryDay(r, "date")
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	report, err := h.service.Report(ctx, r.PathValue("id"), date)
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	xhttp.WriteOK(w, report)
}

// HandleHistory handles GET /api/athletes/{id}/metrics/history?from=&to=.
// from is required; to defaults to today.
func (h *Training) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Query().Get("from") == "" {
		xerrors.WriteError(ctx, w, xerrors.Validation(map[string]string{"from": "is required"}))
		return
	}
	from, err := h.queryDay(r, "from")
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	through, err := h.queryDay(r, "to")
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}

	days, err := h.service.History(ctx, r.PathValue("id"), from, through)
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	if days == nil {
		days = []pipeline.DayReport{}
	}
	xhttp.WriteOK(w, map[string]any{"days": days})
}

// HandleRisk handles GET /api/athletes/{id}/risk?date=YYYY-MM-DD.
func (h *Training) HandleRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := h.queryDay(r, "date")
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	assessment, err := h.service.Assess(ctx, r.PathValue("id"), date)
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	xhttp.WriteOK(w, assessment)
}

type guardrailResponse struct {
	Week       guardrail.Week        `json:"week"`
	Violations []guardrail.Violation `json:"violations"`
}

// HandleGuardrails handles POST /api/athletes/{id}/guardrails.
func (h *Training) HandleGuardrails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var week guardrail.Week
	if err := decode(r, &week); err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	violations, err := h.service.Guardrails(ctx, r.PathValue("id"), &week)
	if err != nil {
		xerrors.WriteError(ctx, w, err)
		return
	}
	if violations == nil {
		violations = []guardrail.Violation{}
	}
	xhttp.WriteOK(w, guardrailResponse{Week: week, Violations: violations})
}

func (h *Training) queryDay(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return training.Day(h.now()), nil
	}
	d, err := training.ParseDay(raw)
	if err != nil {
		return time.Time{}, xerrors.Validation(map[string]string{key: "must be a date formatted YYYY-MM-DD"})
	}
	return d, nil
}

func decode(r *http.Request, v any) error {
	if err := xhttp.DecodeJSON(r, v); err != nil {
		return xerrors.InvalidInput(xerrors.WithMessage("invalid JSON body"), xerrors.WithCause(err))
	}
	return nil
}
