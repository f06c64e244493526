package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/stowgate"
)

// DefaultMaxBodyBytes bounds inbound JSON bodies when HandlerConfig leaves it unset.
const DefaultMaxBodyBytes int64 = 1 << 20

type Service interface {
	Authorize(ctx context.Context, cred stowgate.Credential) (stowgate.AuthorizeResponse, error)
	GetUploadGrant(ctx context.Context, req stowgate.UploadGrantRequest) (stowgate.UploadGrantResponse, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	CORS         CORSConfig
	MaxBodyBytes int64  // 0 means DefaultMaxBodyBytes
	StaticDir    string // served at / when set

	// Registry enables /metrics (or MetricsPath) when non-nil.
	Registry    *prometheus.Registry
	MetricsPath string

	Logger *slog.Logger
}

// Handler provides HTTP handlers for the gateway operations.
type Handler struct {
	config   HandlerConfig
	service  Service
	metrics  *Metrics
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) (*Handler, error) {
	h := &Handler{
		config:   *config,
		service:  service,
		validate: validator.New(),
	}

	if h.config.MaxBodyBytes <= 0 {
		h.config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if h.config.MetricsPath == "" {
		h.config.MetricsPath = "/metrics"
	}

	if h.config.Registry != nil {
		metrics, err := NewMetrics(h.config.Registry)
		if err != nil {
			return nil, fmt.Errorf("new handler: register metrics: %w", err)
		}
		h.metrics = metrics
	}

	return h, nil
}

// Router returns an http.Handler with all gateway routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(h.config.Logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(h.metrics))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.handleRoot)
		r.Post("/authorize_account", h.handleAuthorize)
		r.Post("/get_upload_url", h.handleGetUploadURL)
	})

	if h.config.Registry != nil {
		r.Method(http.MethodGet, h.config.MetricsPath, promhttp.HandlerFor(h.config.Registry, promhttp.HandlerOpts{}))
	}

	if h.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.config.StaticDir)))
	}

	return r
}

// RootDocument is the discovery entry point served at GET /api.
type RootDocument struct {
	stowgate.HasLinks
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	doc := RootDocument{HasLinks: stowgate.HasLinks{Links: stowgate.BuildLinks(map[string]stowgate.LinkSpec{
		"self":                {Href: "/api", Method: stowgate.MethodGet},
		stowgate.RelAuthorize: {Href: stowgate.AuthorizePath, Method: stowgate.MethodPost},
	})}}
	_ = WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var cred stowgate.Credential
	if err := h.decode(w, r, &cred); err != nil {
		HandleError(w, err)
		return
	}

	resp, err := h.service.Authorize(r.Context(), cred)
	if err != nil {
		h.fail(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetUploadURL(w http.ResponseWriter, r *http.Request) {
	var req stowgate.UploadGrantRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	resp, err := h.service.GetUploadGrant(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.metrics.IncUpstreamFailure(err)
	HandleError(w, err)
}

// decode reads a size-limited JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is empty", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %s", ErrInvalidBody, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	return nil
}
