package quote

import (
	"errors"
	"fmt"
	"time"
)

// MaxInstallments is the longest schedule a quote may carry (15 years)
const MaxInstallments = 180

// ErrInconsistentTerms is wrapped by every error Check returns
var ErrInconsistentTerms = errors.New("inconsistent quote terms")

// Terms are the inputs of a quote as edited by a seller. DiscountPercent and
// DiscountAmount describe the same discount; Sync keeps them aligned.
type Terms struct {
	Price           float64   `json:"price"`
	DiscountPercent float64   `json:"discountPercent"`
	DiscountAmount  float64   `json:"discountAmount"`
	InitialPayment  float64   `json:"initialPayment"`
	NumInstallments int       `json:"numInstallments"`
	StartDate       time.Time `json:"startDate"`
}

// WithPercent sets the discount by percentage and derives the amount
func (t Terms) WithPercent(percent float64) Terms {
	t.DiscountPercent = Round(percent, PercentPlaces)
	t.DiscountAmount = AmountFromPercent(t.Price, t.DiscountPercent)
	return t
}

// WithAmount sets the discount by amount and derives the percentage
func (t Terms) WithAmount(amount float64) Terms {
	t.DiscountAmount = Round(amount, MoneyPlaces)
	t.DiscountPercent = PercentFromAmount(t.Price, t.DiscountAmount)
	return t
}

// Sync re-derives the amount from the percentage, which is the
// authoritative input
func (t Terms) Sync() Terms {
	return t.WithPercent(t.DiscountPercent)
}

// Calculate runs Calculate over the terms
func (t Terms) Calculate() Calculations {
	return Calculate(t.Price, t.DiscountPercent, t.InitialPayment, t.NumInstallments, t.StartDate)
}

// Check rejects terms that would produce a meaningless schedule
func Check(t Terms) error {
	switch {
	case t.Price < 0:
		return fmt.Errorf("%w: negative price", ErrInconsistentTerms)
	case t.DiscountPercent < 0 || t.DiscountPercent > 100:
		return fmt.Errorf("%w: discount %.6f%% outside 0-100", ErrInconsistentTerms, t.DiscountPercent)
	case t.InitialPayment < 0:
		return fmt.Errorf("%w: negative initial payment", ErrInconsistentTerms)
	case t.NumInstallments < 1:
		return fmt.Errorf("%w: at least one installment is required", ErrInconsistentTerms)
	case t.NumInstallments > MaxInstallments:
		return fmt.Errorf("%w: %d installments exceeds the limit of %d", ErrInconsistentTerms, t.NumInstallments, MaxInstallments)
	}

	if c := t.Calculate(); c.RemainingBalance < 0 {
		return fmt.Errorf("%w: initial payment %.2f exceeds the discounted price %.2f",
			ErrInconsistentTerms, t.InitialPayment, c.DiscountedPrice)
	}
	return nil
}
