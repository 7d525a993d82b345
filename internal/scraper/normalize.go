package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	multiPackRe  = regexp.MustCompile(`(?i)(\d+)\s*x\s*(\d+(?:[.,]\d+)?)\s*(g|kg)\b`)
	singleSizeRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(g|kg)\b`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9]`)
	sizeCruftRe  = regexp.MustCompile(`[^a-z0-9x]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

var foldReplacer = strings.NewReplacer(
	"'", "", "’", "", "`", "", "´", "",
	"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"é", "e", "è", "e", "ê", "e", "á", "a", "à", "a", "â", "a",
	"í", "i", "ì", "i", "ó", "o", "ò", "o", "ú", "u", "ù", "u",
	"ç", "c", "ñ", "n",
)

// NormalizeBrand folds a brand name to a comparable form: lowercase,
// apostrophes removed, diacritics flattened, everything non-alphanumeric
// stripped. "MAC's" and "macs" normalize identically.
func NormalizeBrand(brand string) string {
	s := strings.ToLower(strings.TrimSpace(brand))
	s = foldReplacer.Replace(s)
	return nonAlnumRe.ReplaceAllString(s, "")
}

// BrandsMatch reports whether a watched brand and a product brand refer to
// the same brand. Matching is bidirectional substring on the normalized
// forms, so "macs" matches "MAC's Premium" and "wild" matches "Wildcraft".
func BrandsMatch(watched, brand string) bool {
	w := NormalizeBrand(watched)
	b := NormalizeBrand(brand)
	if w == "" || b == "" {
		return false
	}
	return w == b || strings.Contains(b, w) || strings.Contains(w, b)
}

// ParseSizeKg extracts the total package weight in kilograms from the size
// string, falling back to the product name. Supports multipacks
// ("24 x 800 g"), plain grams ("800g") and kilograms ("1,5 kg").
func ParseSizeKg(size, name string) (float64, bool) {
	for _, s := range []string{size, name} {
		if s == "" {
			continue
		}
		if m := multiPackRe.FindStringSubmatch(s); m != nil {
			count, _ := strconv.Atoi(m[1])
			unit, err := parseWeight(m[2], m[3])
			if err == nil && count > 0 && unit > 0 {
				return float64(count) * unit, true
			}
		}
		if m := singleSizeRe.FindStringSubmatch(s); m != nil {
			unit, err := parseWeight(m[1], m[2])
			if err == nil && unit > 0 {
				return unit, true
			}
		}
	}
	return 0, false
}

func parseWeight(num, unit string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if strings.EqualFold(unit, "g") {
		v /= 1000
	}
	return v, nil
}

// UnitPrice derives €/kg from the observed price and package size. Returns
// nil when the size cannot be parsed; such products are excluded from deal
// matching.
func UnitPrice(price float64, size, name string) *float64 {
	kg, ok := ParseSizeKg(size, name)
	if !ok || price <= 0 {
		return nil
	}
	v := price / kg
	v = float64(int(v*100+0.5)) / 100
	return &v
}

// MatchKey builds the cross-site grouping key (brand + normalized size) so
// the same offering listed on several sites collapses to one deal.
func MatchKey(brand, size, name string) string {
	b := NormalizeBrand(brand)
	if b == "" {
		b = "unknown"
	}

	sz := strings.ToLower(size)
	sz = spaceRe.ReplaceAllString(sz, "")
	sz = sizeCruftRe.ReplaceAllString(sz, "")

	if sz == "" && name != "" {
		if m := multiPackRe.FindStringSubmatch(name); m != nil {
			sz = fmt.Sprintf("%sx%s%s", m[1], strings.ReplaceAll(m[2], ",", "."), strings.ToLower(m[3]))
		} else if m := singleSizeRe.FindStringSubmatch(name); m != nil {
			sz = fmt.Sprintf("%s%s", strings.ReplaceAll(m[1], ",", "."), strings.ToLower(m[2]))
		}
	}
	if sz == "" {
		sz = "nosize"
	}

	return b + "|" + sz
}
