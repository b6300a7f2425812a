package inventory

import (
	"strings"

	"parcel-portal/internal/models"
)

// MapStatus maps the ERP's free-text status onto the lot status vocabulary.
// Anything unrecognised, including an empty string, is StatusUndefined.
func MapStatus(s string) models.Status {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return models.StatusUndefined
	case strings.Contains(s, "disponible"), s == "available", s == "libre":
		return models.StatusAvailable
	case strings.Contains(s, "reservado"), s == "reserved", s == "separado":
		return models.StatusReserved
	case strings.Contains(s, "vendido"), s == "sold":
		return models.StatusSold
	default:
		return models.StatusUndefined
	}
}
