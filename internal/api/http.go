package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/utils"
)

// maxFilterBytes bounds the export request body.
const maxFilterBytes = 1 << 20

// ExportBackend serves the HTTP download routes.
type ExportBackend interface {
	Ready() bool
	ExportCSV(ctx context.Context, kind export.Kind, spec models.FilterSpec) (filename string, data []byte, err error)
}

// NewHTTPHandler returns the router for metrics, health and CSV downloads.
// A nil gatherer serves the default Prometheus registry.
func NewHTTPHandler(backend ExportBackend, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if backend == nil || !backend.Ready() {
			http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/export/{kind}", func(w http.ResponseWriter, r *http.Request) {
			handleExport(w, r, backend)
		})
	})
	return r
}

func handleExport(w http.ResponseWriter, r *http.Request, backend ExportBackend) {
	if backend == nil {
		http.Error(w, "export backend not configured", http.StatusServiceUnavailable)
		return
	}
	kind, err := export.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFilterBytes))
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}
	spec, err := ParseFilterJSON(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename, data, err := backend.ExportCSV(r.Context(), kind, spec)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

func httpStatus(err error) int {
	switch utils.KindOf(err) {
	case utils.KindInvalid:
		return http.StatusBadRequest
	case utils.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
