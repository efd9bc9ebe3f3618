package samples

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/shopspring/decimal"

	"github.com/southern-apparels/sa-erp/internal/auth"
	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
	"github.com/southern-apparels/sa-erp/internal/querykeys"
)

//go:embed openapi.yaml
var openapiDoc []byte

// Fetcher loads raw backend payloads.
type Fetcher interface {
	Fetch(ctx context.Context, path, token string) (json.RawMessage, error)
}

// Refresher drops lists after a write and schedules their reload.
type Refresher interface {
	Refresh(ctx context.Context, keys ...querykeys.Key)
}

// Config wires the tools handler.
type Config struct {
	Services  *backend.Services
	Lists     ListSource
	Refresher Refresher
	Logger    *slog.Logger
}

// Handler serves the sample department tools API.
type Handler struct {
	services  *backend.Services
	lists     ListSource
	refresher Refresher
	logger    *slog.Logger
	validate  *validator.Validate
	doc       *openapi3.T
}

// LoadDocument parses and validates the embedded OpenAPI document.
func LoadDocument() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiDoc)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	doc.Servers = nil
	return doc, nil
}

// NewHandler builds the tools handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Services == nil {
		return nil, errors.New("samples: backend services required")
	}
	doc, err := LoadDocument()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Lists == nil {
		cfg.Lists = listcache.New(nil, 0)
	}
	return &Handler{
		services:  cfg.Services,
		lists:     cfg.Lists,
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
		validate:  httpx.NewValidator(),
		doc:       doc,
	}, nil
}

// MountRoutes registers the tools endpoints on a router mounted at /dashboard/api/samples.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(nethttpmiddleware.OapiRequestValidatorWithOptions(h.doc, &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: false,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, status int) {
			httpx.Detail(w, status, message)
		},
	}))

	r.Post("/smv/calculate", h.handleCalculateSMV)
	r.Post("/smv", h.handleSaveSMV)
	r.Get("/smv/facets", h.facets(smvFacets))

	r.Get("/uom/units", h.handleUnits)
	r.Get("/uom/compatible", h.handleCompatible)
	r.Post("/uom/convert", h.handleConvert)

	r.Get("/plans/statuses", h.handleStatuses)
	r.Get("/plans/facets", h.facets(planFacets))
	r.Post("/plans/submit", h.handleSubmitPlan)

	r.Post("/tna/batch", h.handleTNABatch)
	r.Get("/tna/facets", h.facets(tnaFacets))

	r.Post("/required-materials/batch", h.handleMaterialsBatch)
	r.Get("/required-materials/facets", h.facets(materialsFacets))
}

// Document serves the OpenAPI document as JSON.
func (h *Handler) Document() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, h.doc)
	})
}

func token(r *http.Request) string {
	if tok := auth.TokenFromContext(r.Context()); tok != "" {
		return tok
	}
	return auth.TokenFromRequest(r)
}

func (h *Handler) refresh(ctx context.Context, keys ...querykeys.Key) {
	if h.refresher != nil {
		h.refresher.Refresh(context.WithoutCancel(ctx), keys...)
	}
}

type worksheet struct {
	SampleID string         `json:"sample_id"`
	Rows     []OperationRow `json:"rows" validate:"dive"`
}

func (h *Handler) handleCalculateSMV(w http.ResponseWriter, r *http.Request) {
	var req worksheet
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Calculate(req.Rows))
}

// smvRecord is the body the backend stores for a worksheet. Operations are kept as a
// JSON string.
type smvRecord struct {
	SampleID   string  `json:"sample_id"`
	BuyerName  string  `json:"buyer_name"`
	StyleName  string  `json:"style_name"`
	Category   string  `json:"category"`
	Gauge      string  `json:"gauge"`
	Operations string  `json:"operations"`
	TotalSMV   float64 `json:"total_smv"`
}

func (h *Handler) handleSaveSMV(w http.ResponseWriter, r *http.Request) {
	var req worksheet
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		respondError(w, err)
		return
	}
	if len(req.Rows) == 0 {
		httpx.Detail(w, http.StatusBadRequest, "Please add at least one operation")
		return
	}
	tok := token(r)
	sample, err := h.services.Samples.GetBySampleID(r.Context(), tok, req.SampleID)
	if err != nil {
		respondError(w, err)
		return
	}
	calc := Calculate(req.Rows)
	ops, err := json.Marshal(calc.Rows)
	if err != nil {
		respondError(w, err)
		return
	}
	body := smvRecord{
		SampleID:   req.SampleID,
		BuyerName:  stringField(sample, "buyer_name", ""),
		StyleName:  stringField(sample, "style_name", ""),
		Category:   stringField(sample, "sample_type", "N/A"),
		Gauge:      stringField(sample, "gauge", "N/A"),
		Operations: string(ops),
		TotalSMV:   calc.TotalSMV,
	}
	rec, err := h.services.SMV.Create(r.Context(), tok, body)
	if err != nil {
		h.logger.Warn("save smv", slog.String("sample_id", req.SampleID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.refresh(r.Context(), querykeys.SampleSMVList)
	httpx.JSON(w, http.StatusCreated, map[string]any{"record": rec, "calculation": calc})
}

func (h *Handler) handleUnits(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"units": Units(), "dimensions": Dimensions()})
}

func (h *Handler) handleCompatible(w http.ResponseWriter, r *http.Request) {
	uom := r.URL.Query().Get("uom")
	if _, ok := LookupUnit(uom); !ok {
		httpx.Detail(w, http.StatusNotFound, "Unknown unit: "+uom)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"uom": strings.ToLower(uom), "compatible": CompatibleUnits(uom)})
}

type convertRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	From     string          `json:"from" validate:"required"`
	To       string          `json:"to" validate:"required"`
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		respondError(w, err)
		return
	}
	result, err := Convert(req.Quantity, req.From, req.To)
	if err != nil {
		httpx.Detail(w, http.StatusBadRequest, "Unable to convert between these units")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quantity": req.Quantity.InexactFloat64(),
		"from":     req.From,
		"to":       req.To,
		"result":   result.InexactFloat64(),
		"display":  result.StringFixed(4),
	})
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, Statuses())
}

// planSubmission carries the fields the gateway reads; the rest of the form is
// forwarded untouched.
type planSubmission struct {
	SampleID     string       `json:"sample_id" validate:"required"`
	Round        int          `json:"round"`
	SubmitStatus SubmitStatus `json:"submit_status"`
}

func (h *Handler) handleSubmitPlan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, &httpx.BadRequestError{Message: "Invalid JSON body: " + err.Error()})
		return
	}
	var sub planSubmission
	var form map[string]any
	if err := json.Unmarshal(raw, &sub); err != nil {
		respondError(w, &httpx.BadRequestError{Message: "Invalid JSON body: " + err.Error()})
		return
	}
	if err := json.Unmarshal(raw, &form); err != nil {
		respondError(w, &httpx.BadRequestError{Message: "Invalid JSON body: " + err.Error()})
		return
	}
	if err := h.validate.Struct(sub); err != nil {
		respondError(w, err)
		return
	}
	round, err := NextRound(sub.Round, sub.SubmitStatus)
	if err != nil {
		respondError(w, err)
		return
	}
	form["round"] = round

	rec, err := h.services.Plans.Create(r.Context(), token(r), form)
	if err != nil {
		h.logger.Warn("submit plan", slog.String("sample_id", sub.SampleID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.refresh(r.Context(), querykeys.SamplePlanList)

	message := "Sample plan submitted with status: " + sub.SubmitStatus.Label()
	if sub.SubmitStatus == StatusRejectRemake {
		message += fmt.Sprintf(" (Round incremented to %d)", round)
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"plan":         rec,
		"round":        round,
		"status_label": sub.SubmitStatus.Label(),
		"message":      message,
	})
}

func (h *Handler) handleTNABatch(w http.ResponseWriter, r *http.Request) {
	var req TNABatchRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		respondError(w, err)
		return
	}
	res := CreateTNABatch(r.Context(), h.services.TNA, token(r), req)
	h.writeBatch(w, r, res, "TNA records", querykeys.SampleTNAList)
}

func (h *Handler) handleMaterialsBatch(w http.ResponseWriter, r *http.Request) {
	var req MaterialsBatchRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		respondError(w, err)
		return
	}
	res, err := CreateMaterialsBatch(r.Context(), h.services.RequiredMaterials.Resource, token(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.writeBatch(w, r, res, "required materials", querykeys.RequiredMaterialsList)
}

// writeBatch answers a fan-out create. Partial failures leave the lists alone.
func (h *Handler) writeBatch(w http.ResponseWriter, r *http.Request, res BatchResult, what string, key querykeys.Key) {
	if !res.OK() {
		h.logger.Warn("batch create incomplete",
			slog.String("kind", what),
			slog.Int("created", len(res.Created)),
			slog.Int("failed", len(res.Failures)))
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail":   "Some " + what + " failed to save",
			"created":  res.Created,
			"failures": res.Failures,
		})
		return
	}
	h.refresh(r.Context(), key)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"created": res.Created,
		"count":   len(res.Created),
		"message": fmt.Sprintf("%d %s created", len(res.Created), what),
	})
}

func (h *Handler) facets(src facetSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := loadFacets(r.Context(), h.lists, h.services.Client, token(r), src)
		if err != nil {
			respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, out)
	}
}

func stringField(rec backend.Record, field, fallback string) string {
	if v, ok := rec[field].(string); ok && v != "" {
		return v
	}
	return fallback
}
