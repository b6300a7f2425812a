package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"

	"parcel-portal/internal/db"
	"parcel-portal/internal/geo"
	"parcel-portal/internal/inventory"
	"parcel-portal/internal/lots"
	"parcel-portal/internal/models"
	"parcel-portal/internal/quote"
	"parcel-portal/internal/syncer"
)

type fakeSync struct {
	err   error
	calls int
}

func (f *fakeSync) Run(ctx context.Context) (syncer.Result, error) {
	f.calls++
	if f.err != nil {
		return syncer.Result{}, f.err
	}
	return syncer.Result{SnapshotID: "abc", Records: 2, Stored: true, Refreshed: true}, nil
}

func newTestServer(t *testing.T, sync SyncRunner) http.Handler {
	t.Helper()

	square := orb.Ring{{308750, 8623070}, {308760, 8623070}, {308760, 8623082}, {308750, 8623082}}
	local := []models.LocalLot{
		{ID: "1", Code: "E01MZA001", Name: "Lote 1", Status: models.StatusAvailable, Price: 100000, Area: 120, Block: "A", Stage: "01", LotNumber: "1", Geometry: square},
		{ID: "2", Code: "E01MZA002", Name: "Lote 2", Status: models.StatusAvailable, Price: 80000, Area: 100, Block: "A", Stage: "01", LotNumber: "2"},
	}
	provider := lots.NewProvider(local, geo.NewRegistry(nil), nil, geo.DefaultUTM, inventory.Options{}, nil)

	snap, err := inventory.NewSnapshot([]inventory.Record{
		{ID: 7, Code: inventory.Text("E01MZA002"), Status: inventory.Text("Vendido")},
	}, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewSnapshot() error: %v", err)
	}
	provider.Refresh(snap)

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	h := NewHandlers(provider, database, sync, nil)
	h.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	return NewRouter(h, "*", nil)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", rec.Body.String(), err)
	}
}

func TestLotEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"list", "/api/lots", http.StatusOK},
		{"list filtered", "/api/lots?status=sold&price_min=abc", http.StatusOK},
		{"unknown status", "/api/lots?status=archived", http.StatusBadRequest},
		{"stats", "/api/lots/stats", http.StatusOK},
		{"geojson", "/api/lots.geojson", http.StatusOK},
		{"get", "/api/lots/e01mza001", http.StatusOK},
		{"get missing", "/api/lots/E09MZZ999", http.StatusNotFound},
		{"measurements", "/api/lots/E01MZA001/measurements", http.StatusOK},
		{"measurements missing", "/api/lots/E09MZZ999/measurements", http.StatusNotFound},
		{"quotes", "/api/lots/E01MZA001/quotes", http.StatusOK},
		{"health", "/healthz", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Errorf("GET %s = %d, want %d: %s", tt.path, rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestListLotsFilter(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/lots?status=sold", nil)
	var resp struct {
		Lots  []models.MergedLot `json:"lots"`
		Count int                `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || resp.Lots[0].Code != "E01MZA002" {
		t.Errorf("sold lots = %+v", resp.Lots)
	}
}

func TestMeasurementsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	var m models.Measurements
	decodeBody(t, do(t, srv, http.MethodGet, "/api/lots/E01MZA001/measurements", nil), &m)
	if m.Area != 120 || m.Perimeter != 44 {
		t.Errorf("measurements = %+v", m)
	}
}

func TestCalculateQuote(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/quotes/calculate", map[string]any{
		"price":           100000,
		"discountPercent": 10,
		"initialPayment":  9000,
		"numInstallments": 12,
		"startDate":       "2025-01-31",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var c quote.Calculations
	decodeBody(t, rec, &c)
	if c.DiscountedPrice != 90000 || c.MonthlyInstallment != 6750 || len(c.Installments) != 12 {
		t.Errorf("calculations = %+v", c)
	}
	if last := c.Installments[11]; last.Balance != 0 {
		t.Errorf("last balance = %v, want 0", last.Balance)
	}
}

func TestCalculateQuoteErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"too many installments", map[string]any{"price": 1000, "numInstallments": 181}, http.StatusUnprocessableEntity},
		{"initial payment over price", map[string]any{"price": 1000, "initialPayment": 2000, "numInstallments": 1}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"price": 1000, "numInstallments": 1, "startDate": "31/01/2025"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"price": 1000, "numInstallments": 1, "rate": 3}, http.StatusBadRequest},
		{"not json", "nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/quotes/calculate", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestSyncDiscount(t *testing.T) {
	srv := newTestServer(t, nil)

	var resp discountResponse
	rec := do(t, srv, http.MethodPost, "/api/quotes/discount", map[string]any{"price": 100000, "amount": 12345.679})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &resp)
	if resp.DiscountPercent != 12.345679 || resp.DiscountAmount != 12345.679 {
		t.Errorf("amount -> percent = %+v", resp)
	}

	decodeBody(t, do(t, srv, http.MethodPost, "/api/quotes/discount", map[string]any{"price": 100000, "percent": 10}), &resp)
	if resp.DiscountAmount != 10000 || resp.DiscountedPrice != 90000 {
		t.Errorf("percent -> amount = %+v", resp)
	}

	if rec := do(t, srv, http.MethodPost, "/api/quotes/discount", map[string]any{"price": 100000}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing discount status = %d, want 400", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/quotes/discount", map[string]any{"price": 100000, "percent": 1, "amount": 1}); rec.Code != http.StatusBadRequest {
		t.Errorf("both given status = %d, want 400", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/quotes/discount", map[string]any{"price": 100, "amount": 150}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("discount over price status = %d, want 422", rec.Code)
	}
}

func TestQuoteLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	// Save
	rec := do(t, srv, http.MethodPost, "/api/quotes", map[string]any{
		"lotCode":         "e01mza001",
		"client":          map[string]any{"name": "Ana Quispe", "phone": "987 654 321", "email": "ana@example.com"},
		"vendorName":      "Luis",
		"discountPercent": 10,
		"initialPayment":  9000,
		"numInstallments": 12,
		"startDate":       "2025-02-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved quoteResponse
	decodeBody(t, rec, &saved)
	if saved.ID == "" || saved.LotCode != "E01MZA001" || saved.Status != models.QuoteDraft {
		t.Errorf("saved = %+v", saved.SavedQuote)
	}
	if saved.Client.Phone != "+51987654321" {
		t.Errorf("phone = %q, want E.164", saved.Client.Phone)
	}
	if saved.OriginalPrice != 100000 || saved.MonthlyInstallment != 6750 {
		t.Errorf("saved amounts = %+v", saved.SavedQuote)
	}

	// Get
	var got quoteResponse
	decodeBody(t, do(t, srv, http.MethodGet, "/api/quotes/"+saved.ID, nil), &got)
	if got.ID != saved.ID || len(got.Calculations.Installments) != 12 {
		t.Errorf("got = %+v", got)
	}

	// List per lot
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, do(t, srv, http.MethodGet, "/api/lots/E01MZA001/quotes", nil), &list)
	if list.Count != 1 {
		t.Errorf("quotes for lot = %d, want 1", list.Count)
	}

	// Schedule
	rec = do(t, srv, http.MethodGet, "/api/quotes/"+saved.ID+"/schedule.xlsx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d: %s", rec.Code, rec.Body.String())
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()
	if title, _ := f.GetCellValue("Sheet1", "A1"); title != "Lote 1 - Ana Quispe" {
		t.Errorf("A1 = %q", title)
	}

	// Confirm
	rec = do(t, srv, http.MethodPost, "/api/quotes/"+saved.ID+"/confirm", map[string]any{"orderId": 55, "partnerId": 9})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rec.Code, rec.Body.String())
	}
	var confirmed models.SavedQuote
	decodeBody(t, rec, &confirmed)
	if confirmed.Status != models.QuoteConfirmed || confirmed.ERPOrderID != 55 {
		t.Errorf("confirmed = %+v", confirmed)
	}

	// Delete
	if rec := do(t, srv, http.MethodDelete, "/api/quotes/"+saved.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/quotes/"+saved.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/quotes/"+saved.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSaveQuoteErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	base := func() map[string]any {
		return map[string]any{
			"lotCode":         "E01MZA001",
			"client":          map[string]any{"name": "Ana"},
			"numInstallments": 12,
		}
	}

	tests := []struct {
		name   string
		edit   func(m map[string]any)
		status int
	}{
		{"unknown lot", func(m map[string]any) { m["lotCode"] = "E09MZZ999" }, http.StatusNotFound},
		{"missing client name", func(m map[string]any) { m["client"] = map[string]any{} }, http.StatusBadRequest},
		{"bad email", func(m map[string]any) { m["client"] = map[string]any{"name": "Ana", "email": "ana"} }, http.StatusBadRequest},
		{"bad phone", func(m map[string]any) { m["client"] = map[string]any{"name": "Ana", "phone": "12"} }, http.StatusBadRequest},
		{"no installments", func(m map[string]any) { m["numInstallments"] = 0 }, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base()
			tt.edit(body)
			rec := do(t, srv, http.MethodPost, "/api/quotes", body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestConfirmMissingQuote(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/quotes/nope/confirm", map[string]any{"orderId": 1, "partnerId": 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTriggerSync(t *testing.T) {
	if rec := do(t, newTestServer(t, nil), http.MethodPost, "/api/sync/trigger", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d, want 503", rec.Code)
	}

	sync := &fakeSync{}
	srv := newTestServer(t, sync)
	rec := do(t, srv, http.MethodPost, "/api/sync/trigger", nil)
	if rec.Code != http.StatusOK || sync.calls != 1 {
		t.Errorf("status = %d, calls = %d", rec.Code, sync.calls)
	}

	sync.err = syncer.ErrRunning
	if rec := do(t, srv, http.MethodPost, "/api/sync/trigger", nil); rec.Code != http.StatusConflict {
		t.Errorf("running status = %d, want 409", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodOptions, "/api/quotes", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
