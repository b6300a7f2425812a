package quote

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Rounding precision: discount percentages keep 6 decimals, money keeps 4.
const (
	PercentPlaces int32 = 6
	MoneyPlaces   int32 = 4
)

// Installment is one monthly payment of a schedule
type Installment struct {
	Number  int       `json:"number"`
	Date    time.Time `json:"date"`
	Amount  float64   `json:"amount"`
	Balance float64   `json:"balance"`
}

// Calculations is the breakdown of a financing quote
type Calculations struct {
	OriginalPrice      float64       `json:"originalPrice"`
	DiscountAmount     float64       `json:"discountAmount"`
	DiscountedPrice    float64       `json:"discountedPrice"`
	InitialPayment     float64       `json:"initialPayment"`
	RemainingBalance   float64       `json:"remainingBalance"`
	MonthlyInstallment float64       `json:"monthlyInstallment"`
	Installments       []Installment `json:"installments"`
}

// Calculate builds the payment schedule for a lot sold at price with the
// given discount and initial payment, spread over numInstallments monthly
// installments starting one month after start.
//
// It performs no validation; see Check. Every installment has the same
// amount, so any rounding residue stays in the last balance. Displayed
// balances never go below zero.
func Calculate(price, discountPercent, initialPayment float64, numInstallments int, start time.Time) Calculations {
	percent := Round(discountPercent, PercentPlaces)
	discountAmount := Round(price*(percent/100), MoneyPlaces)
	discountedPrice := Round(price-discountAmount, MoneyPlaces)
	remaining := Round(discountedPrice-initialPayment, MoneyPlaces)

	var monthly float64
	if numInstallments > 0 {
		monthly = Round(remaining/float64(numInstallments), MoneyPlaces)
	}

	installments := make([]Installment, 0, max(numInstallments, 0))
	balance := remaining
	for i := 1; i <= numInstallments; i++ {
		balance = Round(balance-monthly, MoneyPlaces)
		installments = append(installments, Installment{
			Number:  i,
			Date:    start.AddDate(0, i, 0),
			Amount:  monthly,
			Balance: math.Max(0, balance),
		})
	}

	return Calculations{
		OriginalPrice:      price,
		DiscountAmount:     discountAmount,
		DiscountedPrice:    discountedPrice,
		InitialPayment:     initialPayment,
		RemainingBalance:   remaining,
		MonthlyInstallment: monthly,
		Installments:       installments,
	}
}

// AmountFromPercent returns the discount amount for percent of price
func AmountFromPercent(price, percent float64) float64 {
	return Round(price*(percent/100), MoneyPlaces)
}

// PercentFromAmount returns the discount percentage amount represents of
// price, 0 when price is 0
func PercentFromAmount(price, amount float64) float64 {
	if price == 0 {
		return 0
	}
	return Round(amount/price*100, PercentPlaces)
}

// Round rounds half away from zero to the given decimal places. Non-finite
// values are returned unchanged.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	f, _ := decimal.NewFromFloat(value).Round(places).Float64()
	return f
}
