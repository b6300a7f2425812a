package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parcel-portal/internal/models"
)

// timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

type quoteRow struct {
	ID                 string  `db:"id"`
	LotCode            string  `db:"lot_code"`
	LotName            string  `db:"lot_name"`
	ClientName         string  `db:"client_name"`
	ClientVAT          string  `db:"client_vat"`
	ClientPhone        string  `db:"client_phone"`
	ClientEmail        string  `db:"client_email"`
	VendorName         string  `db:"vendor_name"`
	OriginalPrice      float64 `db:"original_price"`
	DiscountPercent    float64 `db:"discount_percent"`
	DiscountAmount     float64 `db:"discount_amount"`
	DiscountedPrice    float64 `db:"discounted_price"`
	InitialPayment     float64 `db:"initial_payment"`
	RemainingBalance   float64 `db:"remaining_balance"`
	MonthlyInstallment float64 `db:"monthly_installment"`
	NumInstallments    int     `db:"num_installments"`
	StartDate          string  `db:"start_date"`
	Status             string  `db:"status"`
	ERPOrderID         int64   `db:"erp_order_id"`
	ERPPartnerID       int64   `db:"erp_partner_id"`
	CreatedAt          string  `db:"created_at"`
	UpdatedAt          string  `db:"updated_at"`
}

const quoteColumns = `
	id, lot_code, lot_name, client_name, client_vat, client_phone, client_email,
	vendor_name, original_price, discount_percent, discount_amount, discounted_price,
	initial_payment, remaining_balance, monthly_installment, num_installments,
	start_date, status, erp_order_id, erp_partner_id, created_at, updated_at`

func (r quoteRow) toModel() (models.SavedQuote, error) {
	q := models.SavedQuote{
		ID:      r.ID,
		LotCode: r.LotCode,
		LotName: r.LotName,
		Client: models.QuoteClient{
			Name:  r.ClientName,
			VAT:   r.ClientVAT,
			Phone: r.ClientPhone,
			Email: r.ClientEmail,
		},
		VendorName:         r.VendorName,
		OriginalPrice:      r.OriginalPrice,
		DiscountPercent:    r.DiscountPercent,
		DiscountAmount:     r.DiscountAmount,
		DiscountedPrice:    r.DiscountedPrice,
		InitialPayment:     r.InitialPayment,
		RemainingBalance:   r.RemainingBalance,
		MonthlyInstallment: r.MonthlyInstallment,
		NumInstallments:    r.NumInstallments,
		Status:             models.QuoteStatus(r.Status),
		ERPOrderID:         r.ERPOrderID,
		ERPPartnerID:       r.ERPPartnerID,
	}

	var err error
	if q.StartDate, err = parseTime(r.StartDate); err != nil {
		return q, err
	}
	if q.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return q, err
	}
	if q.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return q, err
	}
	return q, nil
}

// SaveQuote inserts a quote or replaces the stored copy with the same id
func (db *DB) SaveQuote(q models.SavedQuote) error {
	_, err := db.Exec(`
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lot_code = excluded.lot_code,
			lot_name = excluded.lot_name,
			client_name = excluded.client_name,
			client_vat = excluded.client_vat,
			client_phone = excluded.client_phone,
			client_email = excluded.client_email,
			vendor_name = excluded.vendor_name,
			original_price = excluded.original_price,
			discount_percent = excluded.discount_percent,
			discount_amount = excluded.discount_amount,
			discounted_price = excluded.discounted_price,
			initial_payment = excluded.initial_payment,
			remaining_balance = excluded.remaining_balance,
			monthly_installment = excluded.monthly_installment,
			num_installments = excluded.num_installments,
			start_date = excluded.start_date,
			status = excluded.status,
			erp_order_id = excluded.erp_order_id,
			erp_partner_id = excluded.erp_partner_id,
			updated_at = excluded.updated_at
	`,
		q.ID, q.LotCode, q.LotName, q.Client.Name, q.Client.VAT, q.Client.Phone, q.Client.Email,
		q.VendorName, q.OriginalPrice, q.DiscountPercent, q.DiscountAmount, q.DiscountedPrice,
		q.InitialPayment, q.RemainingBalance, q.MonthlyInstallment, q.NumInstallments,
		formatTime(q.StartDate), string(q.Status), q.ERPOrderID, q.ERPPartnerID,
		formatTime(q.CreatedAt), formatTime(q.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save quote %s: %w", q.ID, err)
	}
	return nil
}

// GetQuote returns a single quote by id
func (db *DB) GetQuote(id string) (models.SavedQuote, error) {
	var row quoteRow
	err := db.Get(&row, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedQuote{}, ErrNotFound
	}
	if err != nil {
		return models.SavedQuote{}, fmt.Errorf("failed to get quote %s: %w", id, err)
	}
	return row.toModel()
}

// ListQuotesByLot returns the quotes of a lot, newest first
func (db *DB) ListQuotesByLot(lotCode string) ([]models.SavedQuote, error) {
	var rows []quoteRow
	err := db.Select(&rows, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE lot_code = ?
		ORDER BY created_at DESC, id
	`, lotCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	quotes := make([]models.SavedQuote, 0, len(rows))
	for _, r := range rows {
		q, err := r.toModel()
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// ConfirmQuote marks a quote as confirmed against the ERP order and partner
func (db *DB) ConfirmQuote(id string, orderID, partnerID int64, at time.Time) error {
	result, err := db.Exec(`
		UPDATE quotes
		SET status = ?, erp_order_id = ?, erp_partner_id = ?, updated_at = ?
		WHERE id = ?
	`, string(models.QuoteConfirmed), orderID, partnerID, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to confirm quote %s: %w", id, err)
	}
	return requireRow(result)
}

// DeleteQuote removes a quote
func (db *DB) DeleteQuote(id string) error {
	result, err := db.Exec(`DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote %s: %w", id, err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
