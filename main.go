package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/subscription-reminder/internal"
)

type Params struct {
	Action string `descr:"Action to run" positional:"true" alts:"list,add,edit,delete,mark-paid,forecast,stop,resume,history,delete-history,notify,analytics,import,export,init-config" strict:"true"`

	Config  string `descr:"Path to config file (default ~/.subscription-reminder/config.yaml)" optional:"true"`
	Store   string `descr:"Directory holding the subscription store (overrides config)" optional:"true"`
	User    string `descr:"Store collection to use (overrides config)" optional:"true"`
	Output  string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
	Verbose bool   `descr:"Log debug information to stderr" optional:"true"`
	LogJSON bool   `name:"log-json" descr:"Write logs as JSON lines" optional:"true"`
	Today   string `descr:"Override today's date (YYYY-MM-DD), mainly for scripting" optional:"true"`

	ID string `name:"id" descr:"Subscription id, unique id prefix or name" optional:"true"`

	// Edit only touches the fields given on the command line, so an empty --due clears the date
	Name         string `descr:"Subscription name" optional:"true"`
	Cost         string `descr:"Cost per billing cycle" optional:"true"`
	Currency     string `descr:"3-letter currency code" optional:"true"`
	Cycle        string `descr:"Billing cycle (monthly, monthly_custom, yearly, weekly, daily, custom)" optional:"true"`
	CustomDays   int    `descr:"Days between payments for the custom cycle" optional:"true"`
	CustomMonths int    `descr:"Months between payments for the monthly_custom cycle" optional:"true"`
	Due          string `descr:"Next due date (YYYY-MM-DD); empty clears it on edit" optional:"true"`
	Category     string `descr:"Category" optional:"true"`
	Notes        string `descr:"Free text notes" optional:"true"`

	Strategy  string `descr:"Mark-paid strategy" alts:"keep,reset" strict:"true" default:"keep"`
	ResetDate string `descr:"Date the reset strategy restarts from (default today)" optional:"true"`
	Count     int    `descr:"Number of upcoming due dates to list in forecast" default:"0"`
	Index     int    `descr:"Payment history entry index for delete-history" default:"-1"`

	Show       string   `descr:"Which subscriptions to list" alts:"active,stopped,all" strict:"true" default:"all"`
	Categories []string `descr:"Only list these categories" optional:"true"`

	Files  []string `descr:"Files to import (format:path prefix supported)" optional:"true"`
	Format string   `descr:"Fallback import format when the file has no prefix" optional:"true"`
	File   string   `descr:"Export destination (.xlsx)" optional:"true"`
}

func main() {
	newCmd(func(ctx *boa.HookContext, params *Params) {
		if err := run(ctx, params); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}).Run()
}

// newCmd builds the CLI. Environment variables use the SUBSCRIPTION_REMINDER_
// prefix so names like USER or NAME in the shell are not picked up as flags.
func newCmd(runFunc func(ctx *boa.HookContext, params *Params)) boa.CmdT[Params] {
	return boa.NewCmdT[Params]("subscription-reminder").
		WithShort("Track recurring subscriptions and get reminded before they are due").
		WithLong("Keeps a list of recurring subscriptions, computes their next due dates when they are marked as paid, ranks them by urgency and schedules local reminders 8 days before each payment.").
		WithParamEnrich(boa.ParamEnricherCombine(
			boa.ParamEnricherDefault,
			boa.ParamEnricherEnvPrefix("SUBSCRIPTION_REMINDER"),
		)).
		WithRunFuncCtx(runFunc)
}

func run(ctx *boa.HookContext, params *Params) error {
	internal.ConfigureLogging(os.Stderr, params.Verbose, params.LogJSON)

	configPath := params.Config
	if configPath == "" {
		configPath = internal.DefaultConfigPath()
	}

	if params.Action == "init-config" {
		return initConfig(configPath)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if params.Store != "" {
		cfg.SetStoreDir(params.Store)
	}
	if params.User != "" {
		cfg.User = params.User
	}

	store, err := internal.NewFileStore(cfg.StoreDir, cfg.User)
	if err != nil {
		return err
	}

	now := time.Now
	if params.Today != "" {
		today, err := internal.ParseDate(params.Today)
		if err != nil {
			return fmt.Errorf("--today: %w", err)
		}
		// Keep the wall clock so immediate reminders still fire "now"
		now = func() time.Time {
			t := time.Now()
			return time.Date(today.Year(), today.Month(), today.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		}
	}

	app := &internal.App{
		Config:    cfg,
		Store:     store,
		Deliverer: &internal.OutboxDeliverer{Path: cfg.Outbox},
		Out:       os.Stdout,
		Now:       now,
		JSON:      params.Output == "json",
	}

	switch params.Action {
	case "list":
		return app.List(internal.ListOptions{Show: params.Show, Categories: params.Categories})
	case "add":
		_, err := app.Add(addInput(params))
		return err
	case "edit":
		_, err := app.Edit(params.ID, editInput(ctx, params))
		return err
	case "delete":
		return app.Delete(params.ID)
	case "mark-paid", "forecast":
		strategy, err := internal.ParseStrategy(params.Strategy)
		if err != nil {
			return err
		}
		var resetDate internal.Date
		if params.ResetDate != "" {
			if resetDate, err = internal.ParseDate(params.ResetDate); err != nil {
				return fmt.Errorf("--reset-date: %w", err)
			}
		}
		if params.Action == "forecast" {
			return app.Forecast(params.ID, strategy, resetDate, params.Count)
		}
		_, err = app.MarkPaid(params.ID, strategy, resetDate)
		if errors.Is(err, internal.ErrMissingDueDate) {
			return fmt.Errorf("%w (use --strategy reset to pick a start date)", err)
		}
		return err
	case "stop", "resume":
		_, err := app.SetActive(params.ID, params.Action == "resume")
		return err
	case "history":
		return app.History(params.ID)
	case "delete-history":
		return app.DeleteHistory(params.ID, params.Index)
	case "notify":
		_, err := app.Notify(context.Background())
		return err
	case "analytics":
		return app.Analytics()
	case "import":
		if len(params.Files) == 0 {
			return fmt.Errorf("import needs at least one --files entry (formats: %v)", internal.AvailableFormats())
		}
		_, err := app.Import(params.Files, params.Format)
		return err
	case "export":
		if params.File == "" {
			return fmt.Errorf("export needs --file")
		}
		return app.Export(params.File)
	}
	return fmt.Errorf("unknown action %q", params.Action)
}

func loadConfig(path string) (*internal.Config, error) {
	if path == "" {
		return internal.NewDefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return internal.NewDefaultConfig(), nil
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	// Relative store paths are relative to the config file
	if !filepath.IsAbs(cfg.StoreDir) {
		cfg.StoreDir = filepath.Join(filepath.Dir(path), cfg.StoreDir)
	}
	if !filepath.IsAbs(cfg.Outbox) {
		cfg.Outbox = filepath.Join(filepath.Dir(path), cfg.Outbox)
	}
	return cfg, nil
}

func initConfig(path string) error {
	if path == "" {
		return fmt.Errorf("could not determine a config path, pass --config")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := internal.ConfigTemplate().Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote config template to %s\n", path)
	return nil
}

func addInput(params *Params) internal.SubscriptionInput {
	return internal.SubscriptionInput{
		Name:         params.Name,
		Cost:         internal.Amount(params.Cost),
		Currency:     params.Currency,
		BillingCycle: params.Cycle,
		CustomDays:   params.CustomDays,
		CustomMonths: params.CustomMonths,
		NextDueDate:  params.Due,
		Category:     params.Category,
		Notes:        params.Notes,
	}
}

// editInput keeps only the fields that were given a value.
func editInput(ctx *boa.HookContext, params *Params) internal.EditInput {
	str := func(field *string) *string {
		if !ctx.HasValue(field) {
			return nil
		}
		v := *field
		return &v
	}
	num := func(field *int) *int {
		if !ctx.HasValue(field) {
			return nil
		}
		return internal.IntPtr(*field)
	}
	return internal.EditInput{
		Name:         str(&params.Name),
		Cost:         str(&params.Cost),
		Currency:     str(&params.Currency),
		BillingCycle: str(&params.Cycle),
		CustomDays:   num(&params.CustomDays),
		CustomMonths: num(&params.CustomMonths),
		NextDueDate:  str(&params.Due),
		Category:     str(&params.Category),
		Notes:        str(&params.Notes),
	}
}
