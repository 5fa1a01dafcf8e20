package internal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGetCurrency_KnownCurrencies(t *testing.T) {
	codes := []string{"SEK", "USD", "EUR", "GBP", "NOK", "DKK", "CHF", "JPY", "CAD", "AUD", "BRL"}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			c := GetCurrency(code)
			if c.Code != code {
				t.Errorf("Code = %q, want %q", c.Code, code)
			}
			if !IsKnownCurrency(code) {
				t.Errorf("expected %s to be a known currency", code)
			}
			// Verify it can format without panicking
			_ = c.Format(decimal.NewFromInt(1234))
		})
	}
}

func TestGetCurrency_CaseInsensitive(t *testing.T) {
	tests := []string{"sek", "Sek", "SEK", "seK"}
	for _, code := range tests {
		c := GetCurrency(code)
		if c.Code != "SEK" {
			t.Errorf("GetCurrency(%q).Code = %q, want SEK", code, c.Code)
		}
	}
}

func TestGetCurrency_Unknown(t *testing.T) {
	if IsKnownCurrency("XYZ") {
		t.Errorf("XYZ should not be a known currency")
	}
	c := GetCurrency("XYZ")
	if c.Code != "XYZ" {
		t.Errorf("Code = %q, want XYZ", c.Code)
	}
	// Unknown currency should use code as symbol
	formatted := c.Format(decimal.NewFromInt(100))
	if formatted != "100 XYZ" {
		t.Errorf("Format(100) = %q, want %q", formatted, "100 XYZ")
	}
}

func TestCurrency_Format(t *testing.T) {
	// Note: x/text uses non-breaking space (U+00A0) for Swedish thousand separators
	// and fullwidth yen (￥) for Japanese
	nbsp := "\u00a0" // non-breaking space

	tests := []struct {
		name   string
		code   string
		amount string
		want   string
	}{
		{"SEK small", "SEK", "100", "100 kr"},
		{"SEK thousands", "SEK", "1234", "1" + nbsp + "234 kr"},
		{"SEK very large", "SEK", "1234567", "1" + nbsp + "234" + nbsp + "567 kr"},
		{"USD small", "USD", "100", "$100"},
		{"USD thousands", "USD", "1234", "$1,234"},
		{"USD cents", "USD", "15.49", "$15.49"},
		{"USD rounds to cents", "USD", "15.494", "$15.49"},
		{"EUR small", "EUR", "100", "100 €"},
		{"EUR thousands", "EUR", "1234", "1.234 €"},
		{"EUR cents", "EUR", "9.99", "9,99 €"},
		{"GBP thousands", "GBP", "1234", "£1,234"},
		{"CHF thousands", "CHF", "1234", "1.234 CHF"},
		{"JPY thousands", "JPY", "1000", "￥1,000"},
		{"BRL thousands", "BRL", "1234", "1.234 R$"},
		{"Unknown thousands", "XYZ", "1234", "1,234 XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetCurrency(tt.code)
			got := c.Format(decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCurrencyFromLocale(t *testing.T) {
	tests := []struct {
		locale       string
		wantCurrency string
	}{
		{"sv_SE.UTF-8", "SEK"},
		{"en_US.UTF-8", "USD"},
		{"pt_BR.UTF-8", "BRL"},
		{"de_DE", "EUR"},
		{"de_DE@euro", "EUR"},
		{"ja_JP.UTF-8", "JPY"},
		{"en_GB.UTF-8", "GBP"},
		{"en", ""}, // No region
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			if got := currencyFromLocale(tt.locale); got != tt.wantCurrency {
				t.Errorf("currencyFromLocale(%q) = %q, want %q", tt.locale, got, tt.wantCurrency)
			}
		})
	}
}

func TestDetectSystemCurrency(t *testing.T) {
	tests := []struct {
		name         string
		lcMonetary   string
		lcAll        string
		lang         string
		wantCurrency string
	}{
		{
			name:         "LC_MONETARY takes priority",
			lcMonetary:   "sv_SE.UTF-8",
			lcAll:        "en_US.UTF-8",
			lang:         "de_DE.UTF-8",
			wantCurrency: "SEK",
		},
		{
			name:         "LC_ALL when LC_MONETARY empty",
			lcAll:        "en_US.UTF-8",
			lang:         "de_DE.UTF-8",
			wantCurrency: "USD",
		},
		{
			name:         "LANG as fallback",
			lang:         "de_DE.UTF-8",
			wantCurrency: "EUR",
		},
		{
			name:         "Norwegian krone",
			lcMonetary:   "nb_NO.UTF-8",
			wantCurrency: "NOK",
		},
		{
			name:         "No detection when all empty",
			wantCurrency: "",
		},
		{
			name:         "Skip C locale",
			lcMonetary:   "C",
			lcAll:        "POSIX",
			lang:         "sv_SE.UTF-8",
			wantCurrency: "SEK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LC_MONETARY", tt.lcMonetary)
			t.Setenv("LC_ALL", tt.lcAll)
			t.Setenv("LANG", tt.lang)

			if got := DetectSystemCurrency(); got != tt.wantCurrency {
				t.Errorf("DetectSystemCurrency() = %q, want %q", got, tt.wantCurrency)
			}
		})
	}
}
