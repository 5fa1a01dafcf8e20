package internal

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Strategy selects the base date used when a subscription is marked as paid.
type Strategy string

const (
	// StrategyKeep extends the schedule from the current due date.
	StrategyKeep Strategy = "keep"
	// StrategyReset restarts the schedule from a chosen date (usually today).
	StrategyReset Strategy = "reset"
)

// ParseStrategy accepts "keep" and "reset"; an empty string means keep.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyKeep:
		return StrategyKeep, nil
	case StrategyReset:
		return StrategyReset, nil
	}
	return "", fmt.Errorf("%w: unknown mark-paid strategy %q", ErrInvalidConfiguration, s)
}

// Recur returns the next occurrence after base for the given cycle.
// Unrecognized cycles fall back to monthly and are logged as a data-quality warning.
func Recur(base Date, spec CycleSpec) (Date, error) {
	if base.IsZero() {
		return Date{}, fmt.Errorf("%w: no base date", ErrInvalidDate)
	}
	if err := spec.Validate(); err != nil {
		return Date{}, err
	}

	switch spec.Cycle {
	case CycleMonthly:
		return base.AddMonths(1), nil
	case CycleMonthlyCustom:
		return base.AddMonths(*spec.CustomMonths), nil
	case CycleYearly:
		return base.AddYears(1), nil
	case CycleWeekly:
		return base.AddDays(7), nil
	case CycleDaily:
		return base.AddDays(1), nil
	case CycleCustom:
		return base.AddDays(*spec.CustomDays), nil
	default:
		Logger.WithFields(logrus.Fields{
			"billing_cycle": string(spec.Cycle),
		}).Warn("unrecognized billing cycle, treating as monthly")
		return base.AddMonths(1), nil
	}
}

// ComputeKeepSchedule extends the schedule from the subscription's current due date.
func ComputeKeepSchedule(sub Subscription) (Date, error) {
	if !sub.HasDueDate() {
		return Date{}, fmt.Errorf("%w: %q has no due date to keep", ErrMissingDueDate, sub.Name)
	}
	return Recur(*sub.NextDueDate, sub.Spec())
}

// ComputeResetSchedule restarts the schedule from resetDate.
func ComputeResetSchedule(sub Subscription, resetDate Date) (Date, error) {
	return Recur(resetDate, sub.Spec())
}

// MarkPaidResult holds both mutations of a mark-paid action. They must be applied together.
type MarkPaidResult struct {
	NextDueDate  Date         `json:"nextDueDate"`
	HistoryEntry PaymentEntry `json:"historyEntry"`
}

// PlanMarkPaid computes the outcome of marking sub as paid without changing it.
// For StrategyReset, a zero resetDate is rejected; callers default it to today.
func PlanMarkPaid(sub Subscription, strategy Strategy, resetDate Date) (MarkPaidResult, error) {
	var paidDate, next Date
	var err error

	switch strategy {
	case StrategyKeep:
		next, err = ComputeKeepSchedule(sub)
		if err != nil {
			return MarkPaidResult{}, err
		}
		paidDate = *sub.NextDueDate
	case StrategyReset:
		if resetDate.IsZero() {
			return MarkPaidResult{}, fmt.Errorf("%w: reset requires a date", ErrInvalidDate)
		}
		next, err = ComputeResetSchedule(sub, resetDate)
		if err != nil {
			return MarkPaidResult{}, err
		}
		paidDate = resetDate
	default:
		return MarkPaidResult{}, fmt.Errorf("%w: unknown mark-paid strategy %q", ErrInvalidConfiguration, strategy)
	}

	return MarkPaidResult{
		NextDueDate:  next,
		HistoryEntry: PaymentEntry{Date: paidDate, Cost: sub.Cost},
	}, nil
}

// ApplyMarkPaid returns a copy of sub with the history entry appended and the due date replaced.
func ApplyMarkPaid(sub Subscription, result MarkPaidResult) Subscription {
	updated := sub.Clone()
	updated.PaymentHistory = append(updated.PaymentHistory, result.HistoryEntry)
	updated.NextDueDate = DatePtr(result.NextDueDate)
	return updated
}

// Forecast is the read-only preview shown before confirming a mark-paid action.
type Forecast struct {
	PaidDate     Date `json:"paidDate"`
	NextDue      Date `json:"nextDue"`
	FollowingDue Date `json:"followingDue"`
}

// ComputeForecast previews the paid date and the two due dates that follow.
func ComputeForecast(sub Subscription, strategy Strategy, resetDate Date) (Forecast, error) {
	plan, err := PlanMarkPaid(sub, strategy, resetDate)
	if err != nil {
		return Forecast{}, err
	}
	following, err := Recur(plan.NextDueDate, sub.Spec())
	if err != nil {
		return Forecast{}, err
	}
	return Forecast{
		PaidDate:     plan.HistoryEntry.Date,
		NextDue:      plan.NextDueDate,
		FollowingDue: following,
	}, nil
}

// Upcoming chains Recur n times starting from the current due date.
// The current due date itself is the first element.
func Upcoming(sub Subscription, n int) ([]Date, error) {
	if !sub.HasDueDate() {
		return nil, fmt.Errorf("%w: %q", ErrMissingDueDate, sub.Name)
	}
	if n <= 0 {
		return nil, nil
	}
	dates := make([]Date, 0, n)
	current := *sub.NextDueDate
	dates = append(dates, current)
	for len(dates) < n {
		next, err := Recur(current, sub.Spec())
		if err != nil {
			return nil, err
		}
		dates = append(dates, next)
		current = next
	}
	return dates, nil
}
