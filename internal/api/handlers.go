package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"parcel-portal/internal/lots"
	"parcel-portal/internal/models"
	"parcel-portal/internal/syncer"
)

// QuoteStore persists saved quotes
type QuoteStore interface {
	SaveQuote(q models.SavedQuote) error
	GetQuote(id string) (models.SavedQuote, error)
	ListQuotesByLot(lotCode string) ([]models.SavedQuote, error)
	ConfirmQuote(id string, orderID, partnerID int64, at time.Time) error
	DeleteQuote(id string) error
}

// SyncRunner triggers an inventory sync
type SyncRunner interface {
	Run(ctx context.Context) (syncer.Result, error)
}

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	lots     *lots.Provider
	quotes   QuoteStore
	sync     SyncRunner
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance. sync may be nil when no ERP
// is configured.
func NewHandlers(provider *lots.Provider, quotes QuoteStore, sync SyncRunner, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		lots:     provider,
		quotes:   quotes,
		sync:     sync,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"snapshot_id": h.lots.SnapshotID(),
		"lots":        len(h.lots.All()),
	})
}

// ListLots handles GET /api/lots
func (h *Handlers) ListLots(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.lots.List(filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lots":        result,
		"count":       len(result),
		"snapshot_id": h.lots.SnapshotID(),
	})
}

// LotsGeoJSON handles GET /api/lots.geojson
func (h *Handlers) LotsGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fc := h.lots.FeatureCollection(filter)
	data, err := fc.MarshalJSON()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// LotStats handles GET /api/lots/stats
func (h *Handlers) LotStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.lots.Stats(filter))
}

// GetLot handles GET /api/lots/{code}
func (h *Handlers) GetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.lots.Get(chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

// LotMeasurements handles GET /api/lots/{code}/measurements
func (h *Handlers) LotMeasurements(w http.ResponseWriter, r *http.Request) {
	m, err := h.lots.Measurements(chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// LotQuotes handles GET /api/lots/{code}/quotes
func (h *Handlers) LotQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.ListQuotesByLot(models.NormalizeCode(chi.URLParam(r, "code")))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

// TriggerSync handles POST /api/sync/trigger
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "inventory sync is not configured")
		return
	}

	result, err := h.sync.Run(r.Context())
	if errors.Is(err, syncer.ErrRunning) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("manual sync failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseFilter reads lot filters from the query string. Malformed numbers
// are ignored; an unknown status is rejected.
func parseFilter(r *http.Request) (lots.Filter, error) {
	q := r.URL.Query()

	filter := lots.Filter{
		Block:  q.Get("block"),
		Stage:  q.Get("stage"),
		Search: q.Get("q"),
	}

	if v := q.Get("status"); v != "" {
		status := models.Status(v)
		if !status.Valid() {
			return filter, errors.New("unknown status " + strconv.Quote(v))
		}
		filter.Status = status
	}

	filter.PriceMin = parseFloatParam(q.Get("price_min"))
	filter.PriceMax = parseFloatParam(q.Get("price_max"))
	filter.AreaMin = parseFloatParam(q.Get("area_min"))
	filter.AreaMax = parseFloatParam(q.Get("area_max"))

	return filter, nil
}

func parseFloatParam(v string) *float64 {
	if v == "" {
		return nil
	}
	val, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &val
}
