package internal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amounts for one currency code.
type Currency struct {
	Code    string // "SEK", "USD", "EUR"
	unit    currency.Unit
	known   bool
	printer *message.Printer
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"ISK": "kr",
}

// homeLocale picks a formatting locale per currency when the system locale is unknown.
var homeLocale = map[string]language.Tag{
	"SEK": language.Swedish,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"CAD": language.CanadianFrench,
	"AUD": language.MustParse("en-AU"),
	"BRL": language.BrazilianPortuguese,
	"INR": language.MustParse("en-IN"),
	"PLN": language.Polish,
}

// GetCurrency returns the Currency for a code, formatting with the currency's home locale.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(code)
	tag, ok := homeLocale[code]
	if !ok {
		tag = language.English
	}
	return GetCurrencyWithLocale(code, tag)
}

// GetCurrencyWithLocale returns a Currency with a specific locale for formatting.
func GetCurrencyWithLocale(code string, tag language.Tag) Currency {
	code = strings.ToUpper(code)
	unit, err := currency.ParseISO(code)
	known := err == nil
	if !known {
		unit = currency.USD // fallback unit for number formatting only
	}
	return Currency{
		Code:    code,
		unit:    unit,
		known:   known,
		printer: message.NewPrinter(tag),
	}
}

// IsKnownCurrency reports whether code is a valid ISO 4217 code.
func IsKnownCurrency(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(code))
	return err == nil
}

func (c Currency) symbol() string {
	if !c.known {
		return c.Code
	}
	if sym, ok := symbolOverrides[c.Code]; ok {
		return sym
	}
	return c.printer.Sprint(currency.NarrowSymbol(c.unit))
}

// isPrefix returns true if the symbol goes before the amount.
// x/text does not expose CLDR symbol placement, so this list is kept by hand.
func (c Currency) isPrefix() bool {
	switch c.Code {
	case "USD", "GBP", "JPY", "CAD", "AUD", "HKD", "SGD", "NZD", "INR":
		return true
	default:
		return false
	}
}

// Format formats an amount with up to two decimals and the currency symbol.
func (c Currency) Format(amount decimal.Decimal) string {
	formatted := c.printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(0), number.MaxFractionDigits(2)))
	sym := c.symbol()
	if c.isPrefix() {
		return sym + formatted
	}
	return formatted + " " + sym
}
