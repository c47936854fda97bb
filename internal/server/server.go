package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iwvelando/paysplit/internal/config"
	"github.com/iwvelando/paysplit/internal/deposit"
	"github.com/iwvelando/paysplit/internal/document"
	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/allocation"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/iwvelando/paysplit/pkg/output"
	"github.com/iwvelando/paysplit/pkg/paystub"
	"github.com/iwvelando/paysplit/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	conf          config.Configuration
	store         history.Store
	save          bool

	// mu serializes history access across requests.
	mu sync.Mutex
}

// Option configures the handler.
type Option func(*handler)

// WithConfiguration sets the templates, default percents and budget used for
// allocation requests.
func WithConfiguration(conf config.Configuration) Option {
	return func(h *handler) {
		h.conf = conf
	}
}

// WithHistory serves GET /api/history from store and, when save is true,
// appends every successful allocation to it.
func WithHistory(store history.Store, save bool) Option {
	return func(h *handler) {
		h.store = store
		h.save = save
	}
}

// NewHandler constructs the HTTP handler that serves the allocation API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Allocation API endpoint (pay stub upload)
	mux.HandleFunc("/api/allocate", h.handleAllocate)

	// Recorded allocations
	mux.HandleFunc("/api/history", h.handleHistory)

	// Version endpoint
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

// allocateRequest holds the form fields of an allocation upload.
type allocateRequest struct {
	checking   string
	savings    string
	scale      string
	template   string
	password   string
	categories []string
	accumulate bool
}

func (h *handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAllocate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing pay stub file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read pay stub: %v", err), op)
		return
	}

	req := allocateRequest{
		checking:   r.FormValue("checking"),
		savings:    r.FormValue("savings"),
		scale:      r.FormValue("scale"),
		template:   r.FormValue("template"),
		password:   r.FormValue("password"),
		categories: r.MultipartForm.Value["category"],
		accumulate: coerceBool(r.FormValue("accumulate")),
	}

	loader := document.NewLoader(h.logger, document.WithPassword(req.password))
	text, err := loader.Text(header.Filename, buf.Bytes())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := h.allocate(r, text, req)
	if err != nil {
		h.respondError(w, statusFor(err), err.Error(), op)
		return
	}

	h.logger.Info("allocation computed",
		zap.String("op", op),
		zap.String("template", result.Record.Template),
		zap.Int("categories", len(result.Categories)),
		zap.Bool("saved", h.store != nil && h.save),
		zap.Duration("duration", time.Since(start)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := output.JSONFormat(w, result); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) allocate(r *http.Request, text string, req allocateRequest) (deposit.Result, error) {
	conf := h.conf
	if req.template != "" {
		conf.Template = req.template
	}
	extractor, err := conf.Extractor()
	if err != nil {
		return deposit.Result{}, &requestError{err}
	}
	engine, err := conf.Allocation.Engine()
	if err != nil {
		return deposit.Result{}, &requestError{err}
	}
	checking, savings, err := conf.Allocation.Resolve(req.checking, req.savings, req.scale)
	if err != nil {
		return deposit.Result{}, &requestError{err}
	}

	categories, err := conf.Budget.Percents()
	if err != nil {
		return deposit.Result{}, err
	}
	if len(req.categories) > 0 {
		if categories, err = parseCategoryFields(req.categories); err != nil {
			return deposit.Result{}, &requestError{err}
		}
	}

	processor, err := deposit.NewProcessor(extractor, engine, h.logger)
	if err != nil {
		return deposit.Result{}, err
	}
	dreq := deposit.Request{
		Text:            text,
		CheckingPercent: checking,
		SavingsPercent:  savings,
		Categories:      categories,
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if req.accumulate && h.store != nil {
		if dreq.Existing, err = deposit.Seed(ctx, h.store); err != nil {
			return deposit.Result{}, err
		}
	}
	if h.store != nil && h.save {
		return processor.Record(ctx, h.store, dreq)
	}
	return processor.Process(ctx, dreq)
}

// parseCategoryFields reads "Name=percent" form values.
func parseCategoryFields(fields []string) (map[budget.Category]decimal.Decimal, error) {
	raw := make(map[string]string, len(fields))
	for _, field := range fields {
		name, pct, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("invalid category %q, expected Name=percent", field)
		}
		raw[strings.TrimSpace(name)] = strings.TrimSpace(pct)
	}
	return config.ParseCategoryPercents(raw)
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistory"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		h.respondError(w, http.StatusNotFound, "allocation history is not configured", op)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.OutputFormatJSON
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.mu.Lock()
	entries, err := h.store.List(r.Context())
	h.mu.Unlock()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read history: %v", err), op)
		return
	}

	var body bytes.Buffer
	if err := output.WriteHistory(&body, format, entries); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	switch format {
	case constants.OutputFormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case constants.OutputFormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		h.logger.Error("failed to write history response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// requestError marks a failure caused by the request's own fields.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.Is(err, extract.ErrExtraction),
		errors.Is(err, paystub.ErrNegativeNetPay):
		return http.StatusUnprocessableEntity
	case errors.As(err, &reqErr),
		errors.Is(err, allocation.ErrInvalidAllocation),
		errors.Is(err, validation.ErrOutOfRange),
		errors.Is(err, budget.ErrOverAllocation),
		errors.Is(err, budget.ErrInvalidCategory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
