package sites

import "testing"

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"plain name untouched",
			"Feringa Adult Huhn 6 x 400 g",
			"Feringa Adult Huhn 6 x 400 g",
		},
		{
			"leading discount badge stripped",
			"10% Rabatt Feringa Adult Huhn",
			"Feringa Adult Huhn",
		},
		{
			"trailing price stripped",
			"Feringa Adult Huhn 23,99 €",
			"Feringa Adult Huhn",
		},
		{
			"trailing unit price stripped",
			"Feringa Adult Huhn Einzeln 2,49 € / kg",
			"Feringa Adult Huhn",
		},
		{
			"rating widget stripped",
			"Feringa Adult Huhn 4/5 (123)",
			"Feringa Adult Huhn",
		},
		{
			"whitespace collapsed",
			"  Feringa   Adult\tHuhn ",
			"Feringa Adult Huhn",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanName(tt.raw); got != tt.want {
				t.Errorf("cleanName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractBrand(t *testing.T) {
	tests := []struct {
		name  string
		pname string
		want  string
	}{
		{"known single-word brand", "Feringa Adult Huhn", "Feringa"},
		{"known multi-word brand", "Animonda Carny Adult Rind", "Animonda Carny"},
		{"longest match wins", "Animonda vom Feinsten Adult", "Animonda vom Feinsten"},
		{"apostrophe brand", "MAC's Cat Adult Pute", "MAC's Cat"},
		{"unknown brand falls back to first word", "Katzenglück Deluxe Menü", "Katzenglück"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBrand(tt.pname); got != tt.want {
				t.Errorf("extractBrand(%q) = %q, want %q", tt.pname, got, tt.want)
			}
		})
	}
}

func TestExtractSize(t *testing.T) {
	tests := []struct {
		pname string
		want  string
	}{
		{"Feringa Adult 6 x 400 g Huhn", "6 x 400 g"},
		{"Feringa Adult 400g", "400g"},
		{"Feringa Adult 1,5 kg", "1,5 kg"},
		{"Feringa Adult Huhn", ""},
	}
	for _, tt := range tests {
		if got := extractSize(tt.pname); got != tt.want {
			t.Errorf("extractSize(%q) = %q, want %q", tt.pname, got, tt.want)
		}
	}
}

func TestExtractVariantName(t *testing.T) {
	got := extractVariantName("Feringa Adult Huhn 6 x 400 g", "Feringa", "6 x 400 g")
	if got != "Adult Huhn" {
		t.Errorf("variant = %q, want %q", got, "Adult Huhn")
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{"single price", "Feringa Adult 23,99 €", 23.99, true},
		{"lowest of several", "statt 25,99 € jetzt 23,99 €", 23.99, true},
		{"per-unit price excluded", "23,99 € 2,49 € / kg", 23.99, true},
		{"only per-unit price", "2,49 € / kg", 0, false},
		{"no price", "Feringa Adult Huhn", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractPrice(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extractPrice(%q) = (%v, %v), want (%v, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractSaleTag(t *testing.T) {
	tag, ok := extractSaleTag("-15% Rabatt Feringa Adult")
	if !ok || tag != "-15% Rabatt" {
		t.Errorf("extractSaleTag = (%q, %v), want (-15%% Rabatt, true)", tag, ok)
	}
	if _, ok := extractSaleTag("Feringa Adult"); ok {
		t.Error("sale tag found in plain text")
	}
}

func TestExtractExternalID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"variant query wins", "https://www.zooplus.de/shop/katzen/p/564091?activeVariant=564091.13", "564091.13"},
		{"trailing path segment", "https://www.zooplus.de/shop/katzen/p/564091", "564091"},
		{"no id", "https://www.zooplus.de/shop/katzen", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractExternalID(tt.url); got != tt.want {
				t.Errorf("extractExternalID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestBaseProductID(t *testing.T) {
	if got := baseProductID("564091.13"); got != "564091" {
		t.Errorf("baseProductID = %q, want 564091", got)
	}
	if got := baseProductID("564091"); got != "564091" {
		t.Errorf("baseProductID = %q, want 564091", got)
	}
}
