package internal

import (
	"os"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// localeEnvVars are checked in order; LC_MONETARY is the most specific for money.
var localeEnvVars = []string{"LC_MONETARY", "LC_ALL", "LANG"}

// DetectSystemCurrency derives a currency code from the locale environment,
// e.g. LANG=sv_SE.UTF-8 gives "SEK". Returns "" when nothing usable is set.
func DetectSystemCurrency() string {
	for _, envVar := range localeEnvVars {
		locale := os.Getenv(envVar)
		if locale == "" || locale == "C" || locale == "POSIX" {
			continue
		}
		if code := currencyFromLocale(locale); code != "" {
			return code
		}
	}
	return ""
}

// currencyFromLocale maps "pt_BR.UTF-8" or "de_DE@euro" to the region's currency.
func currencyFromLocale(locale string) string {
	base := locale
	if idx := strings.IndexAny(base, ".@"); idx != -1 {
		base = base[:idx]
	}

	tag, err := language.Parse(strings.Replace(base, "_", "-", 1))
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf != language.Exact || region.String() == "ZZ" {
		return ""
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return ""
	}
	return unit.String()
}
