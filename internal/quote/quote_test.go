package quote

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCalculateReferenceQuote(t *testing.T) {
	c := Calculate(100000, 10, 9000, 12, start)

	if c.DiscountAmount != 10000 {
		t.Errorf("DiscountAmount = %v, want 10000", c.DiscountAmount)
	}
	if c.DiscountedPrice != 90000 {
		t.Errorf("DiscountedPrice = %v, want 90000", c.DiscountedPrice)
	}
	if c.RemainingBalance != 81000 {
		t.Errorf("RemainingBalance = %v, want 81000", c.RemainingBalance)
	}
	if c.MonthlyInstallment != 6750 {
		t.Errorf("MonthlyInstallment = %v, want 6750", c.MonthlyInstallment)
	}
	if len(c.Installments) != 12 {
		t.Fatalf("len(Installments) = %d, want 12", len(c.Installments))
	}

	first, last := c.Installments[0], c.Installments[11]
	if !first.Date.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first Date = %v, want 2025-02-01", first.Date)
	}
	if first.Balance != 74250 {
		t.Errorf("first Balance = %v, want 74250", first.Balance)
	}
	if !last.Date.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last Date = %v, want 2026-01-01", last.Date)
	}
	if last.Balance != 0 {
		t.Errorf("last Balance = %v, want 0", last.Balance)
	}
	for i, in := range c.Installments {
		if in.Number != i+1 || in.Amount != 6750 {
			t.Errorf("installment %d = %+v", i, in)
		}
	}
}

func TestCalculateRoundingResidue(t *testing.T) {
	c := Calculate(10000, 0, 0, 3, start)

	if c.MonthlyInstallment != 3333.3333 {
		t.Fatalf("MonthlyInstallment = %v, want 3333.3333", c.MonthlyInstallment)
	}
	if got := c.Installments[2].Balance; got != 0.0001 {
		t.Errorf("last Balance = %v, want residue 0.0001", got)
	}
}

func TestCalculateZeroInstallments(t *testing.T) {
	for _, n := range []int{0, -3} {
		c := Calculate(50000, 5, 1000, n, start)
		if c.MonthlyInstallment != 0 {
			t.Errorf("n=%d MonthlyInstallment = %v, want 0", n, c.MonthlyInstallment)
		}
		if len(c.Installments) != 0 {
			t.Errorf("n=%d len(Installments) = %d, want 0", n, len(c.Installments))
		}
		if c.RemainingBalance != 46500 {
			t.Errorf("n=%d RemainingBalance = %v, want 46500", n, c.RemainingBalance)
		}
	}
}

func TestCalculateNegativeRemainingClampsDisplay(t *testing.T) {
	c := Calculate(10000, 0, 12000, 4, start)

	if c.RemainingBalance != -2000 {
		t.Errorf("RemainingBalance = %v, want -2000", c.RemainingBalance)
	}
	prev := math.Inf(1)
	for _, in := range c.Installments {
		if in.Balance < 0 {
			t.Errorf("installment %d Balance = %v, want >= 0", in.Number, in.Balance)
		}
		if in.Balance > prev {
			t.Errorf("installment %d Balance %v increased from %v", in.Number, in.Balance, prev)
		}
		prev = in.Balance
	}
}

func TestCalculateMonthEndDates(t *testing.T) {
	c := Calculate(1200, 0, 0, 2, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))

	// calendar month addition normalises Feb 31 to Mar 3
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !c.Installments[0].Date.Equal(want) {
		t.Errorf("first Date = %v, want %v", c.Installments[0].Date, want)
	}
}

func TestCalculatePercentRounding(t *testing.T) {
	c := Calculate(100000, 12.3456789, 0, 1, start)
	if c.DiscountAmount != 12345.679 {
		t.Errorf("DiscountAmount = %v, want 12345.679", c.DiscountAmount)
	}
}

func TestPercentAmountRoundTrip(t *testing.T) {
	tests := []struct {
		price, percent float64
	}{
		{98765.43, 12.345678},
		{150000, 7.5},
		{42000, 0.000001},
		{1, 33.333333},
	}

	for _, tt := range tests {
		amount := AmountFromPercent(tt.price, tt.percent)
		back := PercentFromAmount(tt.price, amount)
		tol := 0.0001
		if tt.price < 100 {
			tol = 0.01
		}
		if math.Abs(back-tt.percent) > tol {
			t.Errorf("price %v: percent %v -> amount %v -> percent %v", tt.price, tt.percent, amount, back)
		}
	}

	if got := PercentFromAmount(0, 500); got != 0 {
		t.Errorf("PercentFromAmount(0, 500) = %v, want 0", got)
	}
}

func TestTermsSync(t *testing.T) {
	terms := Terms{Price: 80000}.WithPercent(2.5)
	if terms.DiscountAmount != 2000 {
		t.Errorf("DiscountAmount = %v, want 2000", terms.DiscountAmount)
	}

	terms = terms.WithAmount(4000)
	if terms.DiscountPercent != 5 {
		t.Errorf("DiscountPercent = %v, want 5", terms.DiscountPercent)
	}

	terms.Price = 100000
	terms = terms.Sync()
	if terms.DiscountAmount != 5000 {
		t.Errorf("DiscountAmount after Sync = %v, want 5000", terms.DiscountAmount)
	}
}

func TestCheck(t *testing.T) {
	valid := Terms{Price: 100000, DiscountPercent: 10, InitialPayment: 9000, NumInstallments: 12, StartDate: start}
	if err := Check(valid); err != nil {
		t.Fatalf("Check(valid) error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Terms)
	}{
		{"zero installments", func(q *Terms) { q.NumInstallments = 0 }},
		{"too many installments", func(q *Terms) { q.NumInstallments = MaxInstallments + 1 }},
		{"initial payment above price", func(q *Terms) { q.InitialPayment = 95000 }},
		{"discount above 100", func(q *Terms) { q.DiscountPercent = 120 }},
		{"negative initial payment", func(q *Terms) { q.InitialPayment = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := valid
			tt.mutate(&terms)
			if err := Check(terms); !errors.Is(err, ErrInconsistentTerms) {
				t.Errorf("Check() error = %v, want ErrInconsistentTerms", err)
			}
		})
	}

	limit := valid
	limit.NumInstallments = MaxInstallments
	if err := Check(limit); err != nil {
		t.Errorf("Check(%d installments) error: %v", MaxInstallments, err)
	}
}

func TestWriteScheduleXLSX(t *testing.T) {
	var buf bytes.Buffer
	c := Calculate(100000, 10, 9000, 12, start)
	if err := WriteScheduleXLSX(&buf, "Lote E01MZA001", c); err != nil {
		t.Fatalf("WriteScheduleXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(scheduleSheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue() error: %v", err)
	}
	if title != "Lote E01MZA001" {
		t.Errorf("A1 = %q, want title", title)
	}

	rows, err := f.GetRows(scheduleSheet)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	// title, blank, 6 summary rows, blank, header, 12 installments
	if len(rows) != 22 {
		t.Errorf("len(rows) = %d, want 22", len(rows))
	}
	if got := rows[10][1]; got != "2025-02-01" {
		t.Errorf("first installment date = %q, want 2025-02-01", got)
	}
}
