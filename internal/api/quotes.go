package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ttacon/libphonenumber"

	"parcel-portal/internal/models"
	"parcel-portal/internal/quote"
)

// defaultPhoneRegion is assumed for client phone numbers without a country prefix
const defaultPhoneRegion = "PE"

const dateLayout = "2006-01-02"

type calculateRequest struct {
	Price           float64 `json:"price" validate:"gte=0"`
	DiscountPercent float64 `json:"discountPercent"`
	InitialPayment  float64 `json:"initialPayment"`
	NumInstallments int     `json:"numInstallments"`
	StartDate       string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

type discountRequest struct {
	Price   float64  `json:"price" validate:"gte=0"`
	Percent *float64 `json:"percent" validate:"required_without=Amount,excluded_with=Amount"`
	Amount  *float64 `json:"amount" validate:"required_without=Percent"`
}

type discountResponse struct {
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

type clientRequest struct {
	Name  string `json:"name" validate:"required"`
	VAT   string `json:"vat"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

type saveQuoteRequest struct {
	LotCode         string        `json:"lotCode" validate:"required"`
	Client          clientRequest `json:"client"`
	VendorName      string        `json:"vendorName"`
	DiscountPercent float64       `json:"discountPercent"`
	InitialPayment  float64       `json:"initialPayment"`
	NumInstallments int           `json:"numInstallments"`
	StartDate       string        `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

type confirmRequest struct {
	OrderID   int64 `json:"orderId" validate:"required,gt=0"`
	PartnerID int64 `json:"partnerId" validate:"required,gt=0"`
}

type quoteResponse struct {
	models.SavedQuote
	Calculations quote.Calculations `json:"calculations"`
}

// CalculateQuote handles POST /api/quotes/calculate
func (h *Handlers) CalculateQuote(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := h.decode(w, r, &req); err != nil {
		writeDecodeErr(w, err)
		return
	}

	terms := quote.Terms{
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		InitialPayment:  req.InitialPayment,
		NumInstallments: req.NumInstallments,
		StartDate:       h.startDate(req.StartDate),
	}.Sync()
	if err := quote.Check(terms); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, terms.Calculate())
}

// SyncDiscount handles POST /api/quotes/discount. Exactly one of percent or
// amount is given; the other is derived.
func (h *Handlers) SyncDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := h.decode(w, r, &req); err != nil {
		writeDecodeErr(w, err)
		return
	}

	terms := quote.Terms{Price: req.Price}
	if req.Percent != nil {
		terms = terms.WithPercent(*req.Percent)
	} else {
		terms = terms.WithAmount(*req.Amount)
	}
	if terms.DiscountPercent < 0 || terms.DiscountPercent > 100 {
		writeErr(w, fmt.Errorf("%w: discount %.6f%% outside 0-100", quote.ErrInconsistentTerms, terms.DiscountPercent))
		return
	}

	writeJSON(w, http.StatusOK, discountResponse{
		Price:           terms.Price,
		DiscountPercent: terms.DiscountPercent,
		DiscountAmount:  terms.DiscountAmount,
		DiscountedPrice: quote.Round(terms.Price-terms.DiscountAmount, quote.MoneyPlaces),
	})
}

// SaveQuote handles POST /api/quotes. The price is taken from the merged
// lot, not from the request.
func (h *Handlers) SaveQuote(w http.ResponseWriter, r *http.Request) {
	var req saveQuoteRequest
	if err := h.decode(w, r, &req); err != nil {
		writeDecodeErr(w, err)
		return
	}

	lot, err := h.lots.Get(req.LotCode)
	if err != nil {
		writeErr(w, err)
		return
	}

	phone, err := normalizePhone(req.Client.Phone)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	terms := quote.Terms{
		Price:           lot.Price,
		DiscountPercent: req.DiscountPercent,
		InitialPayment:  req.InitialPayment,
		NumInstallments: req.NumInstallments,
		StartDate:       h.startDate(req.StartDate),
	}.Sync()
	if err := quote.Check(terms); err != nil {
		writeErr(w, err)
		return
	}
	calc := terms.Calculate()

	now := h.now().UTC()
	saved := models.SavedQuote{
		ID:      uuid.NewString(),
		LotCode: lot.Code,
		LotName: lot.Name,
		Client: models.QuoteClient{
			Name:  req.Client.Name,
			VAT:   req.Client.VAT,
			Phone: phone,
			Email: req.Client.Email,
		},
		VendorName:         req.VendorName,
		OriginalPrice:      calc.OriginalPrice,
		DiscountPercent:    terms.DiscountPercent,
		DiscountAmount:     calc.DiscountAmount,
		DiscountedPrice:    calc.DiscountedPrice,
		InitialPayment:     calc.InitialPayment,
		RemainingBalance:   calc.RemainingBalance,
		MonthlyInstallment: calc.MonthlyInstallment,
		NumInstallments:    terms.NumInstallments,
		StartDate:          terms.StartDate,
		Status:             models.QuoteDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.quotes.SaveQuote(saved); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, quoteResponse{SavedQuote: saved, Calculations: calc})
}

// GetQuote handles GET /api/quotes/{id}
func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	saved, err := h.quotes.GetQuote(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{SavedQuote: saved, Calculations: savedTerms(saved).Calculate()})
}

// QuoteSchedule handles GET /api/quotes/{id}/schedule.xlsx
func (h *Handlers) QuoteSchedule(w http.ResponseWriter, r *http.Request) {
	saved, err := h.quotes.GetQuote(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	title := fmt.Sprintf("%s - %s", saved.LotName, saved.Client.Name)
	var buf bytes.Buffer
	if err := quote.WriteScheduleXLSX(&buf, title, savedTerms(saved).Calculate()); err != nil {
		writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cotizacion-%s.xlsx"`, saved.LotCode))
	w.Write(buf.Bytes())
}

// ConfirmQuote handles POST /api/quotes/{id}/confirm
func (h *Handlers) ConfirmQuote(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := h.decode(w, r, &req); err != nil {
		writeDecodeErr(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.quotes.ConfirmQuote(id, req.OrderID, req.PartnerID, h.now().UTC()); err != nil {
		writeErr(w, err)
		return
	}

	saved, err := h.quotes.GetQuote(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteQuote handles DELETE /api/quotes/{id}
func (h *Handlers) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := h.quotes.DeleteQuote(chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startDate parses a validated YYYY-MM-DD date, defaulting to today
func (h *Handlers) startDate(s string) time.Time {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	y, m, d := h.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func savedTerms(q models.SavedQuote) quote.Terms {
	return quote.Terms{
		Price:           q.OriginalPrice,
		DiscountPercent: q.DiscountPercent,
		DiscountAmount:  q.DiscountAmount,
		InitialPayment:  q.InitialPayment,
		NumInstallments: q.NumInstallments,
		StartDate:       q.StartDate,
	}
}

// normalizePhone formats a client phone number as E.164. Empty stays empty.
func normalizePhone(phone string) (string, error) {
	if phone == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(phone, defaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", errors.New("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
