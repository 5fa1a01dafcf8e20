package internal

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// UrgencyHorizonDays is the window over which progress ramps from 0 to 100.
	UrgencyHorizonDays = 30
	// UrgentProgress is the progress above which an item is highlighted.
	UrgentProgress = 70.0
	// NoDueDateSortKey sorts undated subscriptions after every dated one.
	NoDueDateSortKey = 9999
	// NoDueDateLabel is shown instead of a days-left label.
	NoDueDateLabel = "No due date set"
)

// Urgency is the normalized signal shared by list rendering, sorting and notifications.
type Urgency struct {
	HasDueDate  bool    `json:"hasDueDate"`
	DaysLeft    int     `json:"daysLeft"`
	DaysLeftRaw int     `json:"daysLeftRaw"`
	Progress    float64 `json:"progress"`
	Label       string  `json:"label"`
	IsUrgent    bool    `json:"isUrgent"`
}

// Overdue reports whether the due date is already in the past.
func (u Urgency) Overdue() bool {
	return u.HasDueDate && u.DaysLeftRaw < 0
}

// ComputeUrgency derives days-left and progress for a due date relative to today.
func ComputeUrgency(due *Date, today Date) Urgency {
	if due == nil || due.IsZero() {
		return Urgency{Progress: 0, Label: NoDueDateLabel}
	}

	raw := today.DaysUntil(*due)
	daysLeft := max(0, raw)
	capped := min(max(raw, 0), UrgencyHorizonDays)
	progress := float64(UrgencyHorizonDays-capped) / float64(UrgencyHorizonDays) * 100

	return Urgency{
		HasDueDate:  true,
		DaysLeft:    daysLeft,
		DaysLeftRaw: raw,
		Progress:    progress,
		Label:       fmt.Sprintf("%d days left (%s)", daysLeft, due.Short()),
		IsUrgent:    progress > UrgentProgress,
	}
}

// UrgencyOf is a shorthand for ComputeUrgency on a subscription.
func UrgencyOf(sub Subscription, today Date) Urgency {
	return ComputeUrgency(sub.NextDueDate, today)
}

// SortKey orders subscriptions by days left; undated ones get the sentinel.
func SortKey(sub Subscription, today Date) int {
	if !sub.HasDueDate() {
		return NoDueDateSortKey
	}
	return today.DaysUntil(*sub.NextDueDate)
}

// SortSubscriptions sorts in place: active first when useActive is set, then by
// days left ascending, then by name.
func SortSubscriptions(subs []Subscription, today Date, useActive bool) {
	sort.SliceStable(subs, func(i, j int) bool {
		if useActive && subs[i].Active != subs[j].Active {
			return subs[i].Active
		}
		ki, kj := SortKey(subs[i], today), SortKey(subs[j], today)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(subs[i].Name) < strings.ToLower(subs[j].Name)
	})
}
