// Package events turns classified ADT server errors into Kafka events.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
	"github.com/Goden-Gun/adt-lib/pkg/connection"
	log "github.com/Goden-Gun/adt-lib/pkg/logger"
)

// KindMalformed is the event kind of error responses whose exception
// document could not be interpreted.
const KindMalformed = "MalformedErrorDocument"

// ErrorEvent is the JSON payload published for every server error.
type ErrorEvent struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Namespace  string    `json:"namespace,omitempty"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Publisher is satisfied by *kafka.Manager.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Reporter publishes an ErrorEvent per server error. It can be installed on
// a connection with connection.WithObserver.
type Reporter struct {
	publisher Publisher
	topic     string
	now       func() time.Time
}

// NewReporter publishes to topic; an empty topic defers to the publisher's
// default.
func NewReporter(p Publisher, topic string) *Reporter {
	return &Reporter{publisher: p, topic: topic, now: time.Now}
}

// Report publishes err when it is a classified or malformed server error
// and returns nil for every other error.
func (r *Reporter) Report(ctx context.Context, err error, method, path string, status int) error {
	return r.report(ctx, connection.RequestInfo{Method: method, Path: path, StatusCode: status, Err: err})
}

// ObserveRequest implements connection.Observer. Publish failures are
// logged, never returned to the request.
func (r *Reporter) ObserveRequest(ctx context.Context, info connection.RequestInfo) {
	if err := r.report(ctx, info); err != nil {
		log.WithTrace(ctx).WithError(err).Warn("failed to publish adt error event")
	}
}

func (r *Reporter) report(ctx context.Context, info connection.RequestInfo) error {
	ev, ok := r.event(info)
	if !ok {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, r.topic, []byte(ev.Kind), value)
}

func (r *Reporter) event(info connection.RequestInfo) (ErrorEvent, bool) {
	ev := ErrorEvent{
		ID:         uuid.NewString(),
		Time:       r.now().UTC(),
		Method:     info.Method,
		Path:       info.Path,
		StatusCode: info.StatusCode,
		RequestID:  info.RequestID,
	}
	if d, ok := adt.DescriptorOf(info.Err); ok {
		ev.Namespace, ev.Kind, ev.Message = d.Namespace, d.Kind, d.Message
		return ev, true
	}
	if errors.Is(info.Err, adt.ErrMalformedErrorDocument) {
		ev.Kind, ev.Message = KindMalformed, info.Err.Error()
		return ev, true
	}
	return ErrorEvent{}, false
}
