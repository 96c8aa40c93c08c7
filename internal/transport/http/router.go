// Package httptransport assembles the public HTTP surface from the feature
// handlers. Transport concerns stay here; business logic lives in the
// services the handlers delegate to.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifelink/internal/transport/http/shared"
)

// Registrar mounts one feature's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints plus the operational ones.
func NewRouter(registrars ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
