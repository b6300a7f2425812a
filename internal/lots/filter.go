package lots

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"parcel-portal/internal/models"
)

// Filter selects lots. Zero fields match everything.
type Filter struct {
	Status   models.Status
	Block    string
	Stage    string
	Search   string
	PriceMin *float64
	PriceMax *float64
	AreaMin  *float64
	AreaMax  *float64
}

// Matches reports whether lot passes every set criterion
func (f Filter) Matches(lot *models.MergedLot) bool {
	if f.Status != "" && lot.Status != f.Status {
		return false
	}
	if f.Block != "" && !strings.EqualFold(lot.Block, f.Block) {
		return false
	}
	if f.Stage != "" && strings.TrimLeft(lot.Stage, "0") != strings.TrimLeft(f.Stage, "0") {
		return false
	}
	if f.PriceMin != nil && lot.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && lot.Price > *f.PriceMax {
		return false
	}
	if f.AreaMin != nil && lot.Area < *f.AreaMin {
		return false
	}
	if f.AreaMax != nil && lot.Area > *f.AreaMax {
		return false
	}
	if q := NormalizeText(f.Search); q != "" {
		for _, field := range []string{lot.Code, lot.Name, lot.Block, lot.Stage, lot.LotNumber, lot.Description} {
			if strings.Contains(NormalizeText(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// NormalizeText lower-cases s, strips accents and replaces punctuation
// with spaces so "Mz. Ñandú" matches "mz nandu"
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	out = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return ' '
	}, out)
	return strings.Join(strings.Fields(out), " ")
}
