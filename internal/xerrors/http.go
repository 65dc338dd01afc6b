package xerrors

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/du-phan/resilio/internal/xhttp"
	"github.com/du-phan/resilio/internal/xslog"
	go_json "github.com/goccy/go-json"
)

type errorResponse struct {
	Error   Kind              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindContractViolation:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInsufficientData, KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := As(err)
	if appErr == nil {
		appErr = Internal(WithCause(err))
	}

	status := StatusCode(appErr.Kind)
	logError(ctx, appErr, status)

	resp := errorResponse{Error: appErr.Kind, Message: appErr.Message}
	if appErr.Validation != nil {
		resp.Fields = appErr.Validation.Fields
	}

	xhttp.SetHeaderContentTypeApplicationJSON(w)
	w.WriteHeader(status)
	_ = go_json.NewEncoder(w).Encode(resp)
}

func logError(ctx context.Context, err *Error, status int) {
	logger := xslog.FromContext(ctx)
	attrs := []any{
		xslog.HTTPStatus(status),
		slog.String("kind", string(err.Kind)),
		slog.String("message", err.Message),
	}
	if err.Cause != nil {
		attrs = append(attrs, xslog.Error(err.Cause))
	}
	if err.Validation != nil {
		attrs = append(attrs, slog.Any("validation", err.Validation.Fields))
	}

	switch status / 100 {
	case 5:
		logger.ErrorContext(ctx, "server error", attrs...)
	case 4:
		logger.WarnContext(ctx, "client error", attrs...)
	default:
		logger.InfoContext(ctx, "error response", attrs...)
	}
}
