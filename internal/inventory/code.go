package inventory

import (
	"fmt"
	"regexp"
	"strings"

	"parcel-portal/internal/models"
)

var (
	digitsRe = regexp.MustCompile(`\d+`)
	codeRe   = regexp.MustCompile(`^E(\d+)MZ([A-Z]+)(\w+)$`)
)

// BuildCode assembles a business code E<stage>MZ<block><lot> with the stage
// padded to two digits and the lot number to three. The lot number is the
// first digit run of lotName; "" is returned when there is none.
func BuildCode(stage, block, lotName string) string {
	lot := digitsRe.FindString(lotName)
	if lot == "" {
		return ""
	}
	return models.NormalizeCode(fmt.Sprintf("E%sMZ%s%s",
		padLeft(strings.TrimSpace(stage), 2), strings.TrimSpace(block), padLeft(lot, 3)))
}

// ParseCode splits a business code into stage, block and lot number
func ParseCode(code string) (stage, block, lot string, ok bool) {
	m := codeRe.FindStringSubmatch(models.NormalizeCode(code))
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// variantCode toggles the trailing 'P' used for subdivided lots
func variantCode(code string) string {
	if strings.HasSuffix(code, "P") {
		return strings.TrimSuffix(code, "P")
	}
	return code + "P"
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
