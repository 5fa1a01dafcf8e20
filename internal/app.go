package internal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// App runs the CLI actions against a store.
type App struct {
	Config    *Config
	Store     Store
	Deliverer Deliverer
	Out       io.Writer
	Now       func() time.Time
	JSON      bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) today() Date {
	return DateOf(a.now())
}

// ListOptions filters and sorts the list view
type ListOptions struct {
	Show       string
	Categories []string
}

func (a *App) List(opts ListOptions) error {
	subs, err := a.Store.List()
	if err != nil {
		return err
	}
	subs = FilterByStatus(subs, opts.Show)
	subs = FilterByCategory(subs, opts.Categories)

	today := a.today()
	SortSubscriptions(subs, today, true)

	if a.JSON {
		return PrintSubscriptionsJSON(a.Out, subs, today)
	}
	if len(subs) == 0 {
		fmt.Fprintln(a.Out, "No subscriptions.")
		return nil
	}
	PrintSubscriptionsTable(a.Out, subs, OutputOptions{ShowFilter: opts.Show, CategoryFilter: opts.Categories, Today: today})
	return nil
}

func (a *App) Add(in SubscriptionInput) (Subscription, error) {
	sub, err := in.Build(a.Config.DefaultCurrency())
	if err != nil {
		return Subscription{}, err
	}
	created, err := a.Store.Create(sub)
	if err != nil {
		return Subscription{}, err
	}
	a.report(created, "Added")
	return created, nil
}

// EditInput holds optional field changes; nil means unchanged.
type EditInput struct {
	Name         *string
	Cost         *string
	Currency     *string
	BillingCycle *string
	CustomDays   *int
	CustomMonths *int
	NextDueDate  *string // "" clears the due date
	Category     *string
	Notes        *string
}

func (a *App) Edit(id string, in EditInput) (Subscription, error) {
	id, err := a.resolveID(id)
	if err != nil {
		return Subscription{}, err
	}
	updated, err := a.Store.Update(id, func(sub *Subscription) error {
		return applyEdit(sub, in)
	})
	if err != nil {
		return Subscription{}, err
	}
	a.report(updated, "Updated")
	return updated, nil
}

func applyEdit(sub *Subscription, in EditInput) error {
	merged := SubscriptionInput{
		ID:           sub.ID,
		Name:         sub.Name,
		Cost:         Amount(sub.Cost.String()),
		Currency:     sub.Currency,
		BillingCycle: string(sub.BillingCycle),
		Category:     sub.Category,
		Notes:        sub.Notes,
		Active:       &sub.Active,
	}
	if sub.CustomDays != nil {
		merged.CustomDays = *sub.CustomDays
	}
	if sub.CustomMonths != nil {
		merged.CustomMonths = *sub.CustomMonths
	}
	if sub.HasDueDate() {
		merged.NextDueDate = sub.NextDueDate.String()
	}

	if in.Name != nil {
		merged.Name = *in.Name
	}
	if in.Cost != nil {
		merged.Cost = Amount(*in.Cost)
	}
	if in.Currency != nil {
		merged.Currency = *in.Currency
	}
	if in.BillingCycle != nil {
		merged.BillingCycle = *in.BillingCycle
	}
	if in.CustomDays != nil {
		merged.CustomDays = *in.CustomDays
	}
	if in.CustomMonths != nil {
		merged.CustomMonths = *in.CustomMonths
	}
	if in.NextDueDate != nil {
		merged.NextDueDate = *in.NextDueDate
	}
	if in.Category != nil {
		merged.Category = *in.Category
	}
	if in.Notes != nil {
		merged.Notes = *in.Notes
	}

	built, err := merged.Build(sub.Currency)
	if err != nil {
		return err
	}
	built.PaymentHistory = sub.PaymentHistory
	built.CreatedAt = sub.CreatedAt
	*sub = built
	return nil
}

func (a *App) Delete(id string) error {
	id, err := a.resolveID(id)
	if err != nil {
		return err
	}
	if err := a.Store.Delete(id); err != nil {
		return err
	}
	if !a.JSON {
		fmt.Fprintf(a.Out, "Deleted %s\n", id)
	}
	return nil
}

// MarkPaid advances the due date. A zero resetDate defaults to today for the reset strategy.
func (a *App) MarkPaid(id string, strategy Strategy, resetDate Date) (Subscription, error) {
	id, err := a.resolveID(id)
	if err != nil {
		return Subscription{}, err
	}
	if strategy == StrategyReset && resetDate.IsZero() {
		resetDate = a.today()
	}
	updated, result, err := MarkPaid(a.Store, id, strategy, resetDate)
	if err != nil {
		return Subscription{}, err
	}
	Logger.WithFields(logrus.Fields{
		"id":       id,
		"strategy": string(strategy),
		"paid":     result.HistoryEntry.Date.String(),
		"next_due": result.NextDueDate.String(),
	}).Info("marked as paid")

	if a.JSON {
		return updated, writeJSON(a.Out, result)
	}
	fmt.Fprintf(a.Out, "Marked %s as paid on %s, next due %s\n",
		updated.Name, result.HistoryEntry.Date, result.NextDueDate)
	return updated, nil
}

// Forecast previews a mark-paid action and the next count due dates.
func (a *App) Forecast(id string, strategy Strategy, resetDate Date, count int) error {
	id, err := a.resolveID(id)
	if err != nil {
		return err
	}
	sub, err := a.Store.Get(id)
	if err != nil {
		return err
	}
	if strategy == StrategyReset && resetDate.IsZero() {
		resetDate = a.today()
	}
	forecast, err := ComputeForecast(sub, strategy, resetDate)
	if err != nil {
		return err
	}
	out := ForecastOutput{Name: sub.Name, Strategy: strategy, Forecast: forecast}
	if count > 0 && sub.HasDueDate() {
		if out.Upcoming, err = Upcoming(sub, count); err != nil {
			return err
		}
	}
	return PrintForecast(a.Out, out, a.JSON)
}

func (a *App) SetActive(id string, active bool) (Subscription, error) {
	id, err := a.resolveID(id)
	if err != nil {
		return Subscription{}, err
	}
	updated, err := SetActive(a.Store, id, active)
	if err != nil {
		return Subscription{}, err
	}
	verb := "Stopped"
	if active {
		verb = "Resumed"
	}
	a.report(updated, verb)
	return updated, nil
}

func (a *App) History(id string) error {
	id, err := a.resolveID(id)
	if err != nil {
		return err
	}
	sub, err := a.Store.Get(id)
	if err != nil {
		return err
	}
	return PrintHistory(a.Out, sub, a.JSON)
}

func (a *App) DeleteHistory(id string, index int) error {
	id, err := a.resolveID(id)
	if err != nil {
		return err
	}
	updated, err := DeleteHistoryEntry(a.Store, id, index)
	if err != nil {
		return err
	}
	return PrintHistory(a.Out, updated, a.JSON)
}

// Notify resyncs the scheduled reminders with the current subscriptions.
func (a *App) Notify(ctx context.Context) ([]Notification, error) {
	subs, err := a.Store.List()
	if err != nil {
		return nil, err
	}
	now := a.now()
	subs = a.Config.FilterMuted(subs, DateOf(now))

	resyncer := NewResyncer(a.Deliverer, a.Config.Notifications)
	notifications, err := resyncer.Resync(ctx, subs, now)
	if err != nil {
		return nil, err
	}
	return notifications, PrintNotifications(a.Out, notifications, a.JSON)
}

func (a *App) Analytics() error {
	subs, err := a.Store.List()
	if err != nil {
		return err
	}
	return PrintAnalytics(a.Out, Analyze(subs), a.JSON)
}

// Import adds every record from the given files. All files are read before anything is stored.
func (a *App) Import(args []string, fallbackFormat string) (int, error) {
	var all []Subscription
	for _, arg := range args {
		subs, err := ImportFile(arg, fallbackFormat, a.Config.DefaultCurrency())
		if err != nil {
			return 0, err
		}
		all = append(all, subs...)
	}
	if err := a.checkImportIDs(all); err != nil {
		return 0, err
	}
	for _, sub := range all {
		if _, err := a.Store.Create(sub); err != nil {
			return 0, fmt.Errorf("storing %q: %w", sub.Name, err)
		}
	}
	if !a.JSON {
		fmt.Fprintf(a.Out, "Imported %d subscriptions\n", len(all))
	}
	return len(all), nil
}

// checkImportIDs rejects ids already stored or repeated within the batch, so an
// import never stops halfway through.
func (a *App) checkImportIDs(subs []Subscription) error {
	existing, err := a.Store.List()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing)+len(subs))
	for _, sub := range existing {
		seen[sub.ID] = true
	}
	for _, sub := range subs {
		if sub.ID == "" {
			continue
		}
		if seen[sub.ID] {
			return fmt.Errorf("%w: duplicate id %s (%s)", ErrInvalidConfiguration, sub.ID, sub.Name)
		}
		seen[sub.ID] = true
	}
	return nil
}

func (a *App) Export(path string) error {
	subs, err := a.Store.List()
	if err != nil {
		return err
	}
	SortSubscriptions(subs, a.today(), true)
	if err := ExportXLSX(path, subs); err != nil {
		return err
	}
	if !a.JSON {
		fmt.Fprintf(a.Out, "Exported %d subscriptions to %s\n", len(subs), path)
	}
	return nil
}

// resolveID accepts a full id, a unique id prefix or a unique case-insensitive name.
func (a *App) resolveID(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: a subscription id or name is required", ErrInvalidConfiguration)
	}
	subs, err := a.Store.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, sub := range subs {
		if sub.ID == ref {
			return sub.ID, nil
		}
		if strings.HasPrefix(sub.ID, ref) || strings.EqualFold(sub.Name, ref) {
			matches = append(matches, sub.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: %q matches %d subscriptions", ErrInvalidConfiguration, ref, len(matches))
}

func (a *App) report(sub Subscription, verb string) {
	if a.JSON {
		writeJSON(a.Out, JSONSubscription{Subscription: sub, Urgency: UrgencyOf(sub, a.today())})
		return
	}
	fmt.Fprintf(a.Out, "%s %s (%s)\n", verb, sub.Name, sub.ID)
}
