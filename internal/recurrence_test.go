package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func date(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecur(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		spec     CycleSpec
		expected string
	}{
		{"monthly", "2024-03-15", CycleSpec{Cycle: CycleMonthly}, "2024-04-15"},
		{"monthly clamps in leap year", "2024-01-31", CycleSpec{Cycle: CycleMonthly}, "2024-02-29"},
		{"monthly clamps in common year", "2023-01-31", CycleSpec{Cycle: CycleMonthly}, "2023-02-28"},
		{"monthly into 30 day month", "2024-03-31", CycleSpec{Cycle: CycleMonthly}, "2024-04-30"},
		{"monthly over year end", "2024-12-31", CycleSpec{Cycle: CycleMonthly}, "2025-01-31"},
		{"monthly custom", "2024-01-31", CycleSpec{Cycle: CycleMonthlyCustom, CustomMonths: IntPtr(3)}, "2024-04-30"},
		{"monthly custom over year", "2024-11-15", CycleSpec{Cycle: CycleMonthlyCustom, CustomMonths: IntPtr(14)}, "2026-01-15"},
		{"yearly", "2024-06-01", CycleSpec{Cycle: CycleYearly}, "2025-06-01"},
		{"yearly from leap day", "2024-02-29", CycleSpec{Cycle: CycleYearly}, "2025-02-28"},
		{"weekly", "2024-12-28", CycleSpec{Cycle: CycleWeekly}, "2025-01-04"},
		{"daily", "2024-02-28", CycleSpec{Cycle: CycleDaily}, "2024-02-29"},
		{"custom days", "2024-03-15", CycleSpec{Cycle: CycleCustom, CustomDays: IntPtr(10)}, "2024-03-25"},
		{"custom ignores months", "2024-03-15", CycleSpec{Cycle: CycleCustom, CustomDays: IntPtr(1), CustomMonths: IntPtr(5)}, "2024-03-16"},
		{"weekly ignores custom days", "2024-03-15", CycleSpec{Cycle: CycleWeekly, CustomDays: IntPtr(0)}, "2024-03-22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recur(date(tt.base), tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRecur_Deterministic(t *testing.T) {
	base := date("2024-01-31")
	for _, cycle := range []BillingCycle{CycleMonthly, CycleYearly, CycleWeekly, CycleDaily} {
		first, _ := Recur(base, CycleSpec{Cycle: cycle})
		for i := 0; i < 5; i++ {
			again, _ := Recur(base, CycleSpec{Cycle: cycle})
			if !again.Equal(first) {
				t.Errorf("%s: got %s then %s", cycle, first, again)
			}
		}
	}
}

func TestRecur_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		spec CycleSpec
	}{
		{"custom with zero days", CycleSpec{Cycle: CycleCustom, CustomDays: IntPtr(0)}},
		{"custom with negative days", CycleSpec{Cycle: CycleCustom, CustomDays: IntPtr(-3)}},
		{"custom without days", CycleSpec{Cycle: CycleCustom}},
		{"monthly custom with zero months", CycleSpec{Cycle: CycleMonthlyCustom, CustomMonths: IntPtr(0)}},
		{"monthly custom without months", CycleSpec{Cycle: CycleMonthlyCustom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recur(date("2024-03-15"), tt.spec)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestRecur_UnknownCycleFallsBackToMonthly(t *testing.T) {
	var buf bytes.Buffer
	out, level := Logger.Out, Logger.Level
	Logger.SetOutput(&buf)
	defer func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
	}()

	got, err := Recur(date("2024-01-31"), CycleSpec{Cycle: "quarterly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", got)
	}
	if !strings.Contains(buf.String(), "unrecognized billing cycle") {
		t.Errorf("expected a warning to be logged, got %q", buf.String())
	}
}

func TestRecur_NoBaseDate(t *testing.T) {
	_, err := Recur(Date{}, CycleSpec{Cycle: CycleMonthly})
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func testSub(cycle BillingCycle, due string) Subscription {
	sub := Subscription{
		ID:           "sub-1",
		Name:         "Netflix",
		Cost:         decimal.RequireFromString("15.49"),
		Currency:     "USD",
		BillingCycle: cycle,
		Active:       true,
	}
	if due != "" {
		sub.NextDueDate = DatePtr(date(due))
	}
	return sub
}

func TestComputeKeepSchedule(t *testing.T) {
	got, err := ComputeKeepSchedule(testSub(CycleMonthly, "2024-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", got)
	}

	_, err = ComputeKeepSchedule(testSub(CycleMonthly, ""))
	if !errors.Is(err, ErrMissingDueDate) {
		t.Errorf("expected ErrMissingDueDate, got %v", err)
	}
}

func TestComputeResetSchedule(t *testing.T) {
	sub := testSub(CycleWeekly, "2024-01-01")
	got, err := ComputeResetSchedule(sub, date("2024-03-10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2024-03-17" {
		t.Errorf("expected 2024-03-17, got %s", got)
	}

	// Works without an existing due date
	got, err = ComputeResetSchedule(testSub(CycleDaily, ""), date("2024-03-10"))
	if err != nil || got.String() != "2024-03-11" {
		t.Errorf("expected 2024-03-11, got %s (%v)", got, err)
	}
}

func TestPlanMarkPaid(t *testing.T) {
	sub := testSub(CycleMonthly, "2024-05-20")

	keep, err := PlanMarkPaid(sub, StrategyKeep, Date{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keep.HistoryEntry.Date.String() != "2024-05-20" || keep.NextDueDate.String() != "2024-06-20" {
		t.Errorf("keep: unexpected result %+v", keep)
	}
	if !keep.HistoryEntry.Cost.Equal(sub.Cost) {
		t.Errorf("keep: expected cost %s, got %s", sub.Cost, keep.HistoryEntry.Cost)
	}

	reset, err := PlanMarkPaid(sub, StrategyReset, date("2024-05-25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reset.HistoryEntry.Date.String() != "2024-05-25" || reset.NextDueDate.String() != "2024-06-25" {
		t.Errorf("reset: unexpected result %+v", reset)
	}

	if _, err := PlanMarkPaid(sub, "skip", Date{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for unknown strategy, got %v", err)
	}
	if _, err := PlanMarkPaid(sub, StrategyReset, Date{}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for missing reset date, got %v", err)
	}
	if _, err := PlanMarkPaid(testSub(CycleMonthly, ""), StrategyKeep, Date{}); !errors.Is(err, ErrMissingDueDate) {
		t.Errorf("expected ErrMissingDueDate, got %v", err)
	}
}

func TestApplyMarkPaid_DoesNotMutateInput(t *testing.T) {
	sub := testSub(CycleMonthly, "2024-05-20")
	sub.PaymentHistory = []PaymentEntry{{Date: date("2024-04-20"), Cost: sub.Cost}}

	plan, err := PlanMarkPaid(sub, StrategyKeep, Date{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := ApplyMarkPaid(sub, plan)

	if len(sub.PaymentHistory) != 1 || sub.NextDueDate.String() != "2024-05-20" {
		t.Errorf("input was mutated: %+v", sub)
	}
	if len(updated.PaymentHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(updated.PaymentHistory))
	}
	if updated.PaymentHistory[1].Date.String() != "2024-05-20" {
		t.Errorf("expected appended entry for 2024-05-20, got %s", updated.PaymentHistory[1].Date)
	}
	if updated.NextDueDate.String() != "2024-06-20" {
		t.Errorf("expected next due 2024-06-20, got %s", updated.NextDueDate)
	}
}

func TestComputeForecast(t *testing.T) {
	sub := testSub(CycleCustom, "2024-03-15")
	sub.CustomDays = IntPtr(10)

	f, err := ComputeForecast(sub, StrategyKeep, Date{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.PaidDate.String() != "2024-03-15" || f.NextDue.String() != "2024-03-25" || f.FollowingDue.String() != "2024-04-04" {
		t.Errorf("unexpected forecast %+v", f)
	}
}

func TestComputeForecast_MatchesTwoResets(t *testing.T) {
	sub := testSub(CycleMonthly, "")
	resetDate := date("2024-01-31")

	f, err := ComputeForecast(sub, StrategyReset, resetDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := PlanMarkPaid(sub, StrategyReset, resetDate)
	afterFirst := ApplyMarkPaid(sub, first)
	second, _ := PlanMarkPaid(afterFirst, StrategyReset, first.NextDueDate)

	if !f.FollowingDue.Equal(second.NextDueDate) {
		t.Errorf("forecast following %s != sequential reset %s", f.FollowingDue, second.NextDueDate)
	}
}

func TestUpcoming(t *testing.T) {
	sub := testSub(CycleYearly, "2024-02-29")
	dates, err := Upcoming(sub, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"2024-02-29", "2025-02-28", "2026-02-28"}
	if len(dates) != len(expected) {
		t.Fatalf("expected %d dates, got %d", len(expected), len(dates))
	}
	for i, d := range dates {
		if d.String() != expected[i] {
			t.Errorf("date %d: expected %s, got %s", i, expected[i], d)
		}
	}

	if _, err := Upcoming(testSub(CycleYearly, ""), 3); !errors.Is(err, ErrMissingDueDate) {
		t.Errorf("expected ErrMissingDueDate, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"", StrategyKeep, false},
		{"keep", StrategyKeep, false},
		{"reset", StrategyReset, false},
		{"later", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if (err != nil) != tt.wantErr || got != tt.expected {
			t.Errorf("ParseStrategy(%q) = %q, %v", tt.input, got, err)
		}
	}
}
