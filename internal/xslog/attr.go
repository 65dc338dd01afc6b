package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/du-phan/resilio/internal/version"
	"github.com/du-phan/resilio/internal/xhttp"
)

const (
	keyError = "error"
	dateFmt  = "2006-01-02"
)

func Error(err error) slog.Attr {
	return slog.String(keyError, err.Error())
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func RequestMethod(r *http.Request) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, r.URL.Path)
}

func RequestIP(r *http.Request) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, xhttp.GetRequestIP(r))
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}

func CalibrationVersion(v string) slog.Attr {
	const calibrationKey = "calibration_version"
	return slog.String(calibrationKey, v)
}

func AthleteID(id string) slog.Attr {
	const athleteIDKey = "athlete_id"
	return slog.String(athleteIDKey, id)
}

func ActivityID(id string) slog.Attr {
	const activityIDKey = "activity_id"
	return slog.String(activityIDKey, id)
}

func Sport(sport string) slog.Attr {
	const sportKey = "sport"
	return slog.String(sportKey, sport)
}

func Date(t time.Time) slog.Attr {
	const dateKey = "date"
	return slog.String(dateKey, t.Format(dateFmt))
}

func From(t time.Time) slog.Attr {
	const fromKey = "from"
	return slog.String(fromKey, t.Format(dateFmt))
}

func Through(t time.Time) slog.Attr {
	const throughKey = "through"
	return slog.String(throughKey, t.Format(dateFmt))
}

func Effort(value int, source string) slog.Attr {
	return slog.Group("effort",
		slog.Int("value", value),
		slog.String("source", source),
	)
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

func Field(name string) slog.Attr {
	const fieldKey = "field"
	return slog.String(fieldKey, name)
}

func Value(v float64) slog.Attr {
	const valueKey = "value"
	return slog.Float64(valueKey, v)
}

func Topic(topic string) slog.Attr {
	const topicKey = "topic"
	return slog.String(topicKey, topic)
}

func Offset(offset int64) slog.Attr {
	const offsetKey = "offset"
	return slog.Int64(offsetKey, offset)
}
