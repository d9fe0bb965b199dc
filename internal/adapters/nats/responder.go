package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// CrossingFinder answers a crossing query for one point.
type CrossingFinder interface {
	FindCrossings(ctx context.Context, center domain.GeoPoint) (*domain.CrossingResult, error)
}

// FindRequest is the JSON body of a crossings.find request.
type FindRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ErrorReply is sent instead of a PointsResponse when a request fails.
type ErrorReply struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Responder serves crossing queries over NATS request/reply.
type Responder struct {
	conn    *nats.Conn
	finder  CrossingFinder
	timeout time.Duration
	sub     *nats.Subscription
}

// NewResponder creates a responder answering on conn with finder. Each
// request gets timeout to complete.
func NewResponder(conn *nats.Conn, finder CrossingFinder, timeout time.Duration) *Responder {
	return &Responder{conn: conn, finder: finder, timeout: timeout}
}

// Start subscribes to crossings.find in the "curbside" queue group so
// replicas share the load.
func (r *Responder) Start(ctx context.Context) error {
	sub, err := r.conn.QueueSubscribe(SubjectCrossingsFind, "curbside", func(msg *nats.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		if err := msg.Respond(Respond(reqCtx, r.finder, msg.Data)); err != nil {
			slog.Warn("nats reply failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectCrossingsFind, err)
	}
	r.sub = sub
	return nil
}

// Close unsubscribes.
func (r *Responder) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
}

// Respond decodes one request, runs the query and encodes the reply.
func Respond(ctx context.Context, finder CrossingFinder, data []byte) []byte {
	var req FindRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorReply("bad_request", "invalid JSON body")
	}
	if req.Lat == nil || req.Lon == nil {
		return errorReply("bad_request", "lat and lon are required")
	}

	result, err := finder.FindCrossings(ctx, domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return errorReply("bad_request", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrProviderMalformed):
		return errorReply("provider_error", err.Error())
	case err != nil:
		slog.Error("crossings.find failed", "error", err)
		return errorReply("internal_error", err.Error())
	}

	out, err := json.Marshal(result.Response())
	if err != nil {
		return errorReply("internal_error", err.Error())
	}
	return out
}

func errorReply(code, msg string) []byte {
	out, _ := json.Marshal(ErrorReply{Error: msg, Code: code})
	return out
}
