package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BillingCycle string

const (
	CycleMonthly       BillingCycle = "monthly"
	CycleMonthlyCustom BillingCycle = "monthly_custom"
	CycleYearly        BillingCycle = "yearly"
	CycleWeekly        BillingCycle = "weekly"
	CycleDaily         BillingCycle = "daily"
	CycleCustom        BillingCycle = "custom"
)

// KnownCycles lists the billing cycles in display order.
var KnownCycles = []BillingCycle{
	CycleMonthly, CycleMonthlyCustom, CycleYearly, CycleWeekly, CycleDaily, CycleCustom,
}

// IsKnown reports whether c is one of the supported cycles.
func (c BillingCycle) IsKnown() bool {
	for _, known := range KnownCycles {
		if c == known {
			return true
		}
	}
	return false
}

// CycleSpec is the part of a subscription that drives recurrence.
type CycleSpec struct {
	Cycle        BillingCycle
	CustomDays   *int
	CustomMonths *int
}

// Describe returns a short human readable form, e.g. "every 10 days".
func (s CycleSpec) Describe() string {
	switch s.Cycle {
	case CycleCustom:
		if s.CustomDays != nil {
			return fmt.Sprintf("every %d days", *s.CustomDays)
		}
	case CycleMonthlyCustom:
		if s.CustomMonths != nil {
			return fmt.Sprintf("every %d months", *s.CustomMonths)
		}
	}
	return string(s.Cycle)
}

// Validate enforces the custom field rule for the selected cycle.
func (s CycleSpec) Validate() error {
	switch s.Cycle {
	case CycleCustom:
		if s.CustomDays == nil || *s.CustomDays <= 0 {
			return fmt.Errorf("%w: cycle %q requires a positive custom day count", ErrInvalidConfiguration, s.Cycle)
		}
	case CycleMonthlyCustom:
		if s.CustomMonths == nil || *s.CustomMonths <= 0 {
			return fmt.Errorf("%w: cycle %q requires a positive custom month count", ErrInvalidConfiguration, s.Cycle)
		}
	}
	return nil
}

// PaymentEntry records one mark-paid action.
type PaymentEntry struct {
	Date Date            `yaml:"date" json:"date"`
	Cost decimal.Decimal `yaml:"cost" json:"cost"`
}

type Subscription struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Cost           decimal.Decimal `yaml:"cost" json:"cost"`
	Currency       string          `yaml:"currency" json:"currency"`
	BillingCycle   BillingCycle    `yaml:"billing_cycle" json:"billingCycle"`
	CustomDays     *int            `yaml:"custom_days,omitempty" json:"customDays,omitempty"`
	CustomMonths   *int            `yaml:"custom_months,omitempty" json:"customMonths,omitempty"`
	NextDueDate    *Date           `yaml:"next_due_date,omitempty" json:"nextDueDate,omitempty"`
	Category       string          `yaml:"category,omitempty" json:"category,omitempty"`
	Notes          string          `yaml:"notes,omitempty" json:"notes,omitempty"`
	Active         bool            `yaml:"active" json:"active"`
	PaymentHistory []PaymentEntry  `yaml:"payment_history,omitempty" json:"paymentHistory,omitempty"`
	CreatedAt      time.Time       `yaml:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `yaml:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// Spec returns the recurrence settings of the subscription.
func (s Subscription) Spec() CycleSpec {
	return CycleSpec{Cycle: s.BillingCycle, CustomDays: s.CustomDays, CustomMonths: s.CustomMonths}
}

// HasDueDate reports whether a due date is set.
func (s Subscription) HasDueDate() bool {
	return s.NextDueDate != nil && !s.NextDueDate.IsZero()
}

// Validate checks the record before it is stored.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfiguration)
	}
	if s.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidConfiguration)
	}
	if len(s.Currency) != 3 {
		return fmt.Errorf("%w: currency %q is not a 3-letter code", ErrInvalidConfiguration, s.Currency)
	}
	return s.Spec().Validate()
}

// Clone returns a deep copy so callers can derive new values without touching the input.
func (s Subscription) Clone() Subscription {
	c := s
	if s.CustomDays != nil {
		v := *s.CustomDays
		c.CustomDays = &v
	}
	if s.CustomMonths != nil {
		v := *s.CustomMonths
		c.CustomMonths = &v
	}
	if s.NextDueDate != nil {
		v := *s.NextDueDate
		c.NextDueDate = &v
	}
	if s.PaymentHistory != nil {
		c.PaymentHistory = make([]PaymentEntry, len(s.PaymentHistory))
		copy(c.PaymentHistory, s.PaymentHistory)
	}
	return c
}

// IntPtr is a helper for the optional custom counts.
func IntPtr(v int) *int {
	return &v
}
