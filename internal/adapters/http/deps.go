package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/curbside/internal/adapters/postgis"
	"github.com/samirrijal/curbside/internal/adapters/valkey"
	"github.com/samirrijal/curbside/internal/core/usecases"
)

// Dependencies holds everything the HTTP handlers need. Only Crossings is
// required; the rest are reported by the readiness check when present.
type Dependencies struct {
	Crossings *usecases.CrossingService
	Provider  string
	NATS      *nats.Conn
	DB        *postgis.DB
	Cache     *valkey.Cache
}
