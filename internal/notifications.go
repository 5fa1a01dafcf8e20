package internal

import (
	"fmt"
	"math"
	"time"
	"unicode/utf16"
)

const NotificationTitle = "Subscription Due Soon"

// NotificationRules controls when reminders fire.
type NotificationRules struct {
	LeadDays       int           `yaml:"lead_days"`
	FireHour       int           `yaml:"fire_hour"`
	ImmediateDelay time.Duration `yaml:"immediate_delay"`
}

// DefaultNotificationRules: remind 8 days ahead at 09:00, "now" means one second out.
func DefaultNotificationRules() NotificationRules {
	return NotificationRules{
		LeadDays:       8,
		FireHour:       9,
		ImmediateDelay: time.Second,
	}
}

func (r NotificationRules) withDefaults() NotificationRules {
	def := DefaultNotificationRules()
	if r == (NotificationRules{}) {
		return def
	}
	if r.LeadDays <= 0 {
		r.LeadDays = def.LeadDays
	}
	if r.FireHour < 0 || r.FireHour > 23 {
		r.FireHour = def.FireHour
	}
	if r.ImmediateDelay <= 0 {
		r.ImmediateDelay = def.ImmediateDelay
	}
	return r
}

// Notification is one local reminder to be handed to the delivery backend.
type Notification struct {
	ID             int32     `yaml:"id" json:"id"`
	Title          string    `yaml:"title" json:"title"`
	Body           string    `yaml:"body" json:"body"`
	FireAt         time.Time `yaml:"fire_at" json:"fireAt"`
	SubscriptionID string    `yaml:"subscription_id" json:"subscriptionId"`
}

// NotificationID maps a key to a stable non-negative 32-bit id using the
// classic 31-multiplier string hash over UTF-16 code units.
func NotificationID(key string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = h*31 + int32(c)
	}
	if h == math.MinInt32 {
		return math.MaxInt32
	}
	if h < 0 {
		return -h
	}
	return h
}

// DeriveNotifications computes the complete set of reminders that should exist at now.
// The result replaces whatever was scheduled before.
func DeriveNotifications(subs []Subscription, now time.Time, rules NotificationRules) []Notification {
	rules = rules.withDefaults()
	today := DateOf(now)

	var out []Notification
	for _, sub := range subs {
		if !sub.Active || !sub.HasDueDate() {
			continue
		}
		due := *sub.NextDueDate
		daysLeft := today.DaysUntil(due)

		if daysLeft >= 0 && daysLeft <= rules.LeadDays {
			out = append(out, Notification{
				ID:             NotificationID(sub.ID + "-current"),
				Title:          NotificationTitle,
				Body:           notificationBody(sub, daysLeft),
				FireAt:         now.Add(rules.ImmediateDelay),
				SubscriptionID: sub.ID,
			})
		}

		fireAt := due.AddDays(-rules.LeadDays).At(rules.FireHour, now.Location())
		if fireAt.After(now) {
			out = append(out, Notification{
				ID:             NotificationID(sub.ID + "-future"),
				Title:          NotificationTitle,
				Body:           notificationBody(sub, rules.LeadDays),
				FireAt:         fireAt,
				SubscriptionID: sub.ID,
			})
		}
	}
	return out
}

func notificationBody(sub Subscription, days int) string {
	return fmt.Sprintf("%s is due in %d days (%s %s)", sub.Name, days, sub.Currency, sub.Cost.String())
}
