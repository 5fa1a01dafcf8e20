package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputOptions controls how subscriptions are displayed
type OutputOptions struct {
	ShowFilter     string
	CategoryFilter []string
	Today          Date
}

// JSONOutput is the root JSON output object of the list command
type JSONOutput struct {
	Subscriptions []JSONSubscription `json:"subscriptions"`
	Summary       JSONSummary        `json:"summary"`
}

// JSONSummary contains aggregate counts
type JSONSummary struct {
	Count    int `json:"count"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Urgent   int `json:"urgent"`
}

// JSONSubscription is a subscription plus its derived urgency
type JSONSubscription struct {
	Subscription
	Urgency Urgency `json:"urgency"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// BuildJSONOutput pairs each subscription with its urgency for today.
func BuildJSONOutput(subs []Subscription, today Date) JSONOutput {
	out := JSONOutput{Subscriptions: []JSONSubscription{}}
	for _, sub := range subs {
		u := UrgencyOf(sub, today)
		out.Subscriptions = append(out.Subscriptions, JSONSubscription{Subscription: sub, Urgency: u})
		out.Summary.Count++
		if sub.Active {
			out.Summary.Active++
			if u.IsUrgent {
				out.Summary.Urgent++
			}
		} else {
			out.Summary.Inactive++
		}
	}
	return out
}

// PrintSubscriptionsJSON outputs subscriptions in JSON format
func PrintSubscriptionsJSON(w io.Writer, subs []Subscription, today Date) error {
	return writeJSON(w, BuildJSONOutput(subs, today))
}

// ProgressBar renders progress (0-100) as a fixed-width bar.
func ProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 100)
	filled := int(progress / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// PrintSubscriptionsTable outputs subscriptions as a formatted table
func PrintSubscriptionsTable(w io.Writer, subs []Subscription, opts OutputOptions) {
	summary := BuildJSONOutput(subs, opts.Today).Summary
	fmt.Fprintf(w, "%d subscriptions (%d active, %d stopped, %d due soon)\n",
		summary.Count, summary.Active, summary.Inactive, summary.Urgent)
	showingStr := opts.ShowFilter
	if len(opts.CategoryFilter) > 0 {
		showingStr += fmt.Sprintf(", categories: %s", strings.Join(opts.CategoryFilter, ", "))
	}
	fmt.Fprintf(w, "Showing: %s\n\n", showingStr)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Status", "Cycle", "Cost", "Due", "Progress", "Days Left", "ID"})

	for _, sub := range subs {
		u := UrgencyOf(sub, opts.Today)

		status := text.FgGreen.Sprint("ACTIVE")
		if !sub.Active {
			status = text.FgHiBlack.Sprint("STOPPED")
		}

		color := text.FgBlue
		if !u.HasDueDate {
			color = text.FgHiBlack
		} else if u.IsUrgent {
			color = text.FgRed
		}

		due := "-"
		if sub.HasDueDate() {
			due = sub.NextDueDate.String()
		}
		label := u.Label
		if u.Overdue() {
			label += fmt.Sprintf(", %d overdue", -u.DaysLeftRaw)
		}

		t.AppendRow(table.Row{
			sub.Name,
			status,
			sub.Spec().Describe(),
			GetCurrency(sub.Currency).Format(sub.Cost),
			due,
			color.Sprint(ProgressBar(u.Progress, 10)),
			color.Sprint(label),
			shortID(sub.ID),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ForecastOutput is the confirmation preview of mark-paid
type ForecastOutput struct {
	Name     string   `json:"name"`
	Strategy Strategy `json:"strategy"`
	Forecast Forecast `json:"forecast"`
	Upcoming []Date   `json:"upcoming,omitempty"`
}

// PrintForecast shows the paid / next / following dates
func PrintForecast(w io.Writer, out ForecastOutput, asJSON bool) error {
	if asJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "%s (%s)\n", out.Name, out.Strategy)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Paid", "Next Due", "Following"})
	t.AppendRow(table.Row{out.Forecast.PaidDate.String(), text.Bold.Sprint(out.Forecast.NextDue.String()), out.Forecast.FollowingDue.String()})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Render()

	if len(out.Upcoming) > 0 {
		dates := make([]string, len(out.Upcoming))
		for i, d := range out.Upcoming {
			dates[i] = d.String()
		}
		fmt.Fprintf(w, "Upcoming: %s\n", strings.Join(dates, ", "))
	}
	return nil
}

// PrintNotifications lists the scheduled reminders
func PrintNotifications(w io.Writer, notifications []Notification, asJSON bool) error {
	if asJSON {
		if notifications == nil {
			notifications = []Notification{}
		}
		return writeJSON(w, notifications)
	}
	if len(notifications) == 0 {
		fmt.Fprintln(w, "No notifications scheduled.")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Fire At", "Body"})
	for _, n := range notifications {
		t.AppendRow(table.Row{n.ID, n.FireAt.Format(time.DateTime), n.Body})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Render()
	return nil
}

// HistoryOutput is the payment history view of one subscription
type HistoryOutput struct {
	Name    string         `json:"name"`
	Entries []PaymentEntry `json:"entries"`
	Stats   HistoryStats   `json:"stats"`
}

// PrintHistory lists payments in stored order; the index is what delete-history takes.
func PrintHistory(w io.Writer, sub Subscription, asJSON bool) error {
	out := HistoryOutput{
		Name:    sub.Name,
		Entries: sub.PaymentHistory,
		Stats:   CalculateHistoryStats(sub.PaymentHistory),
	}
	if out.Entries == nil {
		out.Entries = []PaymentEntry{}
	}
	if asJSON {
		return writeJSON(w, out)
	}
	if len(out.Entries) == 0 {
		fmt.Fprintf(w, "%s has no payment history.\n", sub.Name)
		return nil
	}

	cur := GetCurrency(sub.Currency)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Date", "Cost"})
	for i, entry := range out.Entries {
		t.AppendRow(table.Row{i, entry.Date.String(), cur.Format(entry.Cost)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(out.Stats.TotalPaid))})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
	return nil
}

// PrintAnalytics shows monthly spend per currency and per category
func PrintAnalytics(w io.Writer, a Analytics, asJSON bool) error {
	if asJSON {
		return writeJSON(w, a)
	}
	if len(a.Totals) == 0 {
		fmt.Fprintln(w, "No active subscriptions.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Currency", "Active", "Monthly", "Yearly"})
	for _, total := range a.Totals {
		cur := GetCurrency(total.Currency)
		t.AppendRow(table.Row{total.Currency, total.Count, cur.Format(total.MonthlyTotal), cur.Format(total.YearlyTotal)})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()

	c := table.NewWriter()
	c.SetOutputMirror(w)
	c.AppendHeader(table.Row{"Category", "Count", "Monthly"})
	for _, cat := range a.Categories {
		c.AppendRow(table.Row{cat.Category, cat.Count, GetCurrency(cat.Currency).Format(cat.MonthlyCost)})
	}
	c.SetStyle(table.StyleRounded)
	c.Style().Format.Header = text.FormatDefault
	c.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	c.Render()
	return nil
}

// FilterByStatus filters subscriptions by status (active/stopped/all)
func FilterByStatus(subs []Subscription, show string) []Subscription {
	if show == "all" || show == "" {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if show == "active" && sub.Active {
			result = append(result, sub)
		} else if show == "stopped" && !sub.Active {
			result = append(result, sub)
		}
	}
	return result
}

// FilterByCategory keeps subscriptions in any of the given categories
func FilterByCategory(subs []Subscription, categories []string) []Subscription {
	if len(categories) == 0 {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		for _, c := range categories {
			if strings.EqualFold(sub.Category, c) {
				result = append(result, sub)
				break
			}
		}
	}
	return result
}
