package models

import "time"

// QuoteStatus tracks whether a saved quote was confirmed against the ERP
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft_local"
	QuoteConfirmed QuoteStatus = "confirmed"
)

// QuoteClient holds the prospective buyer attached to a quote
type QuoteClient struct {
	Name  string `json:"name"`
	VAT   string `json:"vat,omitempty"`
	Phone string `json:"phone,omitempty"` // E.164 once normalised
	Email string `json:"email,omitempty"`
}

// SavedQuote is a financing quote persisted for a lot
type SavedQuote struct {
	ID                 string      `json:"id"`
	LotCode            string      `json:"lot_code"`
	LotName            string      `json:"lot_name"`
	Client             QuoteClient `json:"client"`
	VendorName         string      `json:"vendor_name"`
	OriginalPrice      float64     `json:"original_price"`
	DiscountPercent    float64     `json:"discount_percent"`
	DiscountAmount     float64     `json:"discount_amount"`
	DiscountedPrice    float64     `json:"discounted_price"`
	InitialPayment     float64     `json:"initial_payment"`
	RemainingBalance   float64     `json:"remaining_balance"`
	MonthlyInstallment float64     `json:"monthly_installment"`
	NumInstallments    int         `json:"num_installments"`
	StartDate          time.Time   `json:"start_date"`
	Status             QuoteStatus `json:"status"`
	ERPOrderID         int64       `json:"erp_order_id,omitempty"`
	ERPPartnerID       int64       `json:"erp_partner_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}
