package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SubscriptionInput is the loosely typed form used by importers and the CLI.
// Empty fields fall back to the defaults of a newly created subscription.
type SubscriptionInput struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Cost         Amount `json:"cost,omitempty"`
	Currency     string `json:"currency,omitempty"`
	BillingCycle string `json:"billingCycle,omitempty"`
	CustomDays   int    `json:"customDays,omitempty"`
	CustomMonths int    `json:"customMonths,omitempty"`
	NextDueDate  string `json:"nextDueDate,omitempty"` // YYYY-MM-DD
	Category     string `json:"category,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Active       *bool  `json:"active,omitempty"`

	PaymentHistory []PaymentEntry `json:"paymentHistory,omitempty"`
}

const (
	DefaultCategory = "Other"
	DefaultCurrency = "USD"
)

// Build converts the input into a validated Subscription.
func (in SubscriptionInput) Build(defaultCurrency string) (Subscription, error) {
	sub := Subscription{
		ID:           in.ID,
		Name:         strings.TrimSpace(in.Name),
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		BillingCycle: BillingCycle(strings.ToLower(strings.TrimSpace(in.BillingCycle))),
		Category:     strings.TrimSpace(in.Category),
		Notes:        in.Notes,
		Active:       true,
	}

	if in.Cost != "" {
		cost, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(string(in.Cost)), ",", "."))
		if err != nil {
			return Subscription{}, fmt.Errorf("%w: cost %q is not a number", ErrInvalidConfiguration, in.Cost)
		}
		sub.Cost = cost
	}
	if sub.Currency == "" {
		sub.Currency = strings.ToUpper(defaultCurrency)
	}
	if sub.Currency == "" {
		sub.Currency = DefaultCurrency
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = CycleMonthly
	}
	if sub.Category == "" {
		sub.Category = DefaultCategory
	}
	if in.Active != nil {
		sub.Active = *in.Active
	}
	if len(in.PaymentHistory) > 0 {
		sub.PaymentHistory = SortedHistory(in.PaymentHistory)
	}
	if !sub.BillingCycle.IsKnown() {
		Logger.WithFields(logrus.Fields{
			"name":          sub.Name,
			"billing_cycle": string(sub.BillingCycle),
		}).Warn("unrecognized billing cycle, due dates will advance monthly")
	}
	if !IsKnownCurrency(sub.Currency) {
		Logger.WithFields(logrus.Fields{
			"name":     sub.Name,
			"currency": sub.Currency,
		}).Debug("currency is not an ISO 4217 code")
	}

	// Custom counts are only kept for the cycle that uses them
	switch sub.BillingCycle {
	case CycleCustom:
		if in.CustomDays != 0 {
			sub.CustomDays = IntPtr(in.CustomDays)
		}
	case CycleMonthlyCustom:
		if in.CustomMonths != 0 {
			sub.CustomMonths = IntPtr(in.CustomMonths)
		}
	}

	if in.NextDueDate != "" {
		due, err := ParseDate(strings.TrimSpace(in.NextDueDate))
		if err != nil {
			return Subscription{}, fmt.Errorf("next due date: %w", err)
		}
		sub.NextDueDate = DatePtr(due)
	}

	if err := sub.Validate(); err != nil {
		return Subscription{}, fmt.Errorf("subscription %q: %w", sub.Name, err)
	}
	return sub, nil
}

// Amount is a cost as typed by a user; JSON accepts both 9.99 and "9.99".
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = ""
		return nil
	}
	*a = Amount(strings.Trim(s, `"`))
	return nil
}

// SimpleJSONFormat is a minimal JSON format for importing subscriptions
// Example:
//
//	{
//	  "subscriptions": [
//	    {"name": "Netflix", "cost": "15.49", "currency": "USD", "billingCycle": "monthly", "nextDueDate": "2025-01-15"},
//	    {"name": "Gym", "cost": "30", "billingCycle": "custom", "customDays": 28}
//	  ]
//	}
type SimpleJSONFormat struct {
	Subscriptions []SubscriptionInput `json:"subscriptions"`
}

// ImportSimpleJSON parses a JSON file in the simple JSON format
func ImportSimpleJSON(path string) ([]SubscriptionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var jsonData SimpleJSONFormat
	if err := json.Unmarshal(data, &jsonData); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return jsonData.Subscriptions, nil
}
