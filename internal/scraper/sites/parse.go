package sites

import (
	"regexp"
	"strings"
)

var (
	ratingJunkRe   = regexp.MustCompile(`(?i)this is a stars rating area[^:]*:\s*|from zero to \d+:\s*|\d+/5\s*\(\d+\)`)
	leadDiscountRe = regexp.MustCompile(`^\d+%\s*Rabatt\s*`)
	trailPriceRe   = regexp.MustCompile(`(?i)(Einzeln\s*)?[\d,]+\s*€(\s*/\s*kg)?.*$`)
	sizeInNameRe   = regexp.MustCompile(`(?i)\d+\s*x\s*\d+(?:[.,]\d+)?\s*(?:g|kg)\b|\d+(?:[.,]\d+)?\s*(?:g|kg)\b`)
)

// knownBrands are the wet-food brands carried by the configured retailers,
// longest-match-first so "animonda carny" wins over "animonda".
var knownBrands = []string{
	"animonda vom feinsten",
	"animonda integra protect",
	"animonda carny",
	"mac's vetcare",
	"mac's cat",
	"lily's kitchen",
	"catz finefood",
	"terra felis",
	"wildes land",
	"granatapet",
	"almo nature",
	"happy cat",
	"royal canin",
	"purina one",
	"cat's love",
	"lucky lou",
	"green petfood",
	"edgard & cooper",
	"venandi animal",
	"perfect fit",
	"animonda",
	"carnilove",
	"leonardo",
	"mjamjam",
	"kattovit",
	"sanabelle",
	"schesir",
	"schmusy",
	"applaws",
	"bozita",
	"mac's",
	"miamor",
	"felix",
	"sheba",
	"gourmet",
	"whiskas",
	"kitekat",
	"dreamies",
	"tundra",
	"defu",
	"brit",
}

// cleanName strips rating widgets, discount badges and trailing prices that
// leak into the card text on rendered listings.
func cleanName(raw string) string {
	name := ratingJunkRe.ReplaceAllString(raw, "")
	name = leadDiscountRe.ReplaceAllString(name, "")
	name = trailPriceRe.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// extractBrand matches the leading portion of the product name against the
// known brand list; unknown brands fall back to the first word.
func extractBrand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range knownBrands {
		if strings.HasPrefix(lower, brand) {
			return name[:len(brand)]
		}
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// extractSize pulls the package size fragment ("24 x 800 g", "400g") out of
// the product name.
func extractSize(name string) string {
	return strings.TrimSpace(sizeInNameRe.FindString(name))
}

// extractVariantName is what remains of the name once brand and size are
// removed; it distinguishes flavors of the same base product.
func extractVariantName(name, brand, size string) string {
	v := name
	if brand != "" {
		v = strings.Replace(v, brand, "", 1)
	}
	if size != "" {
		v = strings.Replace(v, size, "", 1)
	}
	v = strings.Trim(v, " -–,")
	return strings.Join(strings.Fields(v), " ")
}
