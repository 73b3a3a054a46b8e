// Package server renders the dataset dashboard and classifies single
// messages with a trained pipeline.
package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/classifier"
	"github.com/pable/go-data-pipelines/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Classifier predicts every label for a single message.
type Classifier interface {
	Classify(text string) []classifier.LabelResult
}

// Deps is everything the handlers read. It is built once at start-up and
// must not be mutated afterwards.
type Deps struct {
	Dashboard  *Dashboard
	Classifier Classifier
	Logger     *zap.Logger
}

type page struct {
	Query          string
	Graphs         []Graph
	IDs            []string
	Classification []classifier.LabelResult
}

type classifyResponse struct {
	Query          string                   `json:"query"`
	Classification []classifier.LabelResult `json:"classification"`
}

type templates struct {
	index *template.Template
	query *template.Template
}

func parseTemplates() (*templates, error) {
	index, err := template.ParseFS(templateFS, "templates/master.html")
	if err != nil {
		return nil, err
	}
	base, err := index.Clone()
	if err != nil {
		return nil, err
	}
	query, err := base.ParseFS(templateFS, "templates/go.html")
	if err != nil {
		return nil, err
	}
	return &templates{index: index, query: query}, nil
}

// NewRouter wires the dashboard routes. It fails only if the embedded
// templates do not parse.
func NewRouter(deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dash := deps.Dashboard
	if dash == nil {
		dash = &Dashboard{}
	}
	metrics.Init()

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- DASHBOARD ----------------

	index := func(w http.ResponseWriter, r *http.Request) {
		render(w, logger, tmpl.index, page{Graphs: dash.Graphs, IDs: dash.IDs})
	}
	r.Get("/", index)
	r.Get("/index", index)

	r.Get("/go", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		render(w, logger, tmpl.query, page{
			Query:          query,
			Classification: classify(deps.Classifier, query),
		})
	})

	// ---------------- API ----------------

	r.Get("/api/classify", func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		if !values.Has("query") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter"})
			return
		}
		query := values.Get("query")
		writeJSON(w, http.StatusOK, classifyResponse{
			Query:          query,
			Classification: classify(deps.Classifier, query),
		})
	})

	return r, nil
}

func classify(c Classifier, text string) []classifier.LabelResult {
	if c == nil {
		return nil
	}
	start := time.Now()
	out := c.Classify(text)
	metrics.ObserveClassify(time.Since(start))
	return out
}

func render(w http.ResponseWriter, logger *zap.Logger, t *template.Template, data page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "master.html", data); err != nil {
		logger.Error("render template", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
