package internal

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	weeksPerYear  = decimal.NewFromInt(52)
	daysPerYear   = decimal.NewFromInt(365)
)

// MonthlyCost normalizes a subscription's cost to an average month.
func MonthlyCost(sub Subscription) decimal.Decimal {
	switch sub.BillingCycle {
	case CycleYearly:
		return sub.Cost.Div(monthsPerYear)
	case CycleWeekly:
		return sub.Cost.Mul(weeksPerYear).Div(monthsPerYear)
	case CycleDaily:
		return sub.Cost.Mul(daysPerYear).Div(monthsPerYear)
	case CycleCustom:
		if sub.CustomDays == nil || *sub.CustomDays <= 0 {
			return decimal.Zero
		}
		return sub.Cost.Mul(daysPerYear).Div(monthsPerYear).Div(decimal.NewFromInt(int64(*sub.CustomDays)))
	case CycleMonthlyCustom:
		if sub.CustomMonths == nil || *sub.CustomMonths <= 0 {
			return decimal.Zero
		}
		return sub.Cost.Div(decimal.NewFromInt(int64(*sub.CustomMonths)))
	default:
		return sub.Cost
	}
}

// CategoryCost is the monthly spend of one category in one currency.
type CategoryCost struct {
	Category    string          `json:"category"`
	Currency    string          `json:"currency"`
	MonthlyCost decimal.Decimal `json:"monthlyCost"`
	Count       int             `json:"count"`
}

// ProjectionPoint is the cumulative spend after a number of months.
type ProjectionPoint struct {
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// CurrencyTotal aggregates active subscriptions of one currency. Amounts are never converted.
type CurrencyTotal struct {
	Currency     string            `json:"currency"`
	Count        int               `json:"count"`
	MonthlyTotal decimal.Decimal   `json:"monthlyTotal"`
	YearlyTotal  decimal.Decimal   `json:"yearlyTotal"`
	Projection   []ProjectionPoint `json:"projection"`
}

type Analytics struct {
	Totals     []CurrencyTotal `json:"totals"`
	Categories []CategoryCost  `json:"categories"`
}

// Analyze computes spending totals over the active subscriptions.
func Analyze(subs []Subscription) Analytics {
	totals := make(map[string]*CurrencyTotal)
	categories := make(map[string]*CategoryCost)

	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		monthly := MonthlyCost(sub)

		t, ok := totals[sub.Currency]
		if !ok {
			t = &CurrencyTotal{Currency: sub.Currency}
			totals[sub.Currency] = t
		}
		t.Count++
		t.MonthlyTotal = t.MonthlyTotal.Add(monthly)

		category := sub.Category
		if strings.TrimSpace(category) == "" {
			category = "Uncategorized"
		}
		key := category + "\x00" + sub.Currency
		c, ok := categories[key]
		if !ok {
			c = &CategoryCost{Category: category, Currency: sub.Currency}
			categories[key] = c
		}
		c.Count++
		c.MonthlyCost = c.MonthlyCost.Add(monthly)
	}

	var result Analytics
	for _, t := range totals {
		t.YearlyTotal = t.MonthlyTotal.Mul(monthsPerYear)
		t.Projection = Projection(t.MonthlyTotal, 12)
		result.Totals = append(result.Totals, *t)
	}
	sort.Slice(result.Totals, func(i, j int) bool {
		return result.Totals[i].Currency < result.Totals[j].Currency
	})

	for _, c := range categories {
		result.Categories = append(result.Categories, *c)
	}
	// Highest spend first
	sort.Slice(result.Categories, func(i, j int) bool {
		a, b := result.Categories[i], result.Categories[j]
		if !a.MonthlyCost.Equal(b.MonthlyCost) {
			return a.MonthlyCost.GreaterThan(b.MonthlyCost)
		}
		return a.Category < b.Category
	})

	return result
}

// Projection returns the cumulative spend for each of the next months, rounded to whole units.
func Projection(monthly decimal.Decimal, months int) []ProjectionPoint {
	points := make([]ProjectionPoint, 0, months)
	total := decimal.Zero
	for i := 1; i <= months; i++ {
		total = total.Add(monthly)
		points = append(points, ProjectionPoint{Month: i, Amount: total.Round(0)})
	}
	return points
}

// HistoryStats summarizes a subscription's payment history.
type HistoryStats struct {
	Count     int             `json:"count"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
	Average   decimal.Decimal `json:"average"`
	FirstPaid Date            `json:"firstPaid"`
	LastPaid  Date            `json:"lastPaid"`
}

// CalculateHistoryStats returns count, totals and the paid date range.
func CalculateHistoryStats(history []PaymentEntry) HistoryStats {
	stats := HistoryStats{Count: len(history)}
	if len(history) == 0 {
		return stats
	}
	sorted := SortedHistory(history)
	for _, entry := range sorted {
		stats.TotalPaid = stats.TotalPaid.Add(entry.Cost)
	}
	stats.Average = stats.TotalPaid.Div(decimal.NewFromInt(int64(len(sorted))))
	stats.FirstPaid = sorted[0].Date
	stats.LastPaid = sorted[len(sorted)-1].Date
	return stats
}

// SortedHistory returns the entries ordered by date without touching the input.
func SortedHistory(history []PaymentEntry) []PaymentEntry {
	sorted := make([]PaymentEntry, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
