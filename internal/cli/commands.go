package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/report"
)

// Commands lists the subcommands of the kakeibo client.
var Commands = []subcommands.Command{
	&listCmd{},
	&addCmd{},
	&rmCmd{},
	&chartCmd{},
	&categoriesCmd{},
}

// Output streams, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// session is one command run: a loaded ledger and a way to release it once
// every sync call has finished.
type session struct {
	ctrl    *ledger.Controller
	logger  *applog.Logger
	cleanup func()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, logger, err := Bootstrap(applog.ComponentCLI, stderr)
	if err != nil {
		return nil, err
	}
	ctrl, cleanup, err := NewController(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := ctrl.LoadAll(ctx); err != nil {
		cleanup()
		return nil, err
	}
	return &session{ctrl: ctrl, logger: logger, cleanup: cleanup}, nil
}

func (s *session) close() {
	s.ctrl.Wait()
	s.cleanup()
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

type listCmd struct {
	sort string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions with the running balance" }
func (*listCmd) Usage() string {
	return `kakeibo list [-sort desc|asc]

  Loads every transaction from the expenses resource and prints them with
  their category totals and the balance.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sort, "sort", "", "Order by date: desc or asc. Default keeps the resource order.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var want ledger.SortDirection
	if c.sort != "" {
		dir, ok := ledger.ParseSortDirection(c.sort)
		if !ok {
			return fail("invalid sort direction %q", c.sort)
		}
		want = dir
	}

	s, err := openSession(ctx)
	if err != nil {
		return fail("load ledger: %v", err)
	}
	defer s.close()

	if c.sort != "" {
		// The toggle starts at desc, so asc takes a second request.
		for range 2 {
			applied, err := s.ctrl.RequestSort()
			if err != nil {
				return fail("sort: %v", err)
			}
			if applied == want {
				break
			}
		}
	}

	view := s.ctrl.Snapshot()
	report.WriteTable(stdout, view.Transactions, view.TotalBalance)
	if len(view.Transactions) > 0 {
		fmt.Fprintln(stdout)
		report.WriteCategoryTable(stdout, ledger.SortedCategoryTotals(view.Transactions))
	}
	return subcommands.ExitSuccess
}

type addCmd struct {
	amount   string
	kind     string
	category string
	date     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or an expense" }
func (*addCmd) Usage() string {
	return `kakeibo add -amount <amount> -type income|expense -category <category> [-date YYYY-MM-DD]

  Adds the transaction and waits for the expenses resource to confirm it.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Positive amount.")
	f.StringVar(&c.kind, "type", string(core.KindExpense), "income or expense.")
	f.StringVar(&c.category, "category", "", "Category of the chosen type.")
	f.StringVar(&c.date, "date", "", "Date of the transaction (defaults to today).")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	d, err := c.draft()
	if err != nil {
		return fail("%v", err)
	}

	s, err := openSession(ctx)
	if err != nil {
		return fail("load ledger: %v", err)
	}
	defer s.close()

	placeholder, err := s.ctrl.AddTransaction(ctx, d)
	if err != nil {
		return fail("add: %v", err)
	}
	s.ctrl.Wait()

	for _, t := range s.ctrl.Snapshot().Transactions {
		if t.Token != placeholder.Token {
			continue
		}
		if t.Status != core.StatusConfirmed {
			return fail("transaction kept locally but not confirmed by the expenses resource")
		}
		fmt.Fprintf(stdout, "added %s: %s %s %s on %s\n", t.ID, t.Kind, t.Category, t.Amount, t.Date)
		return subcommands.ExitSuccess
	}
	return fail("transaction disappeared before confirmation")
}

func (c *addCmd) draft() (core.Draft, error) {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return core.Draft{}, fmt.Errorf("amount %q: %w", c.amount, err)
	}
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return core.Draft{}, err
	}
	date := core.Today()
	if c.date != "" {
		if date, err = core.ParseDate(c.date); err != nil {
			return core.Draft{}, err
		}
	}
	d := core.Draft{Amount: amount, Kind: kind, Category: c.category, Date: date}
	if err := d.Validate(); err != nil {
		if errors.Is(err, core.ErrInvalidCategory) || errors.Is(err, core.ErrEmptyCategory) {
			return core.Draft{}, fmt.Errorf("%w (choose one of %v)", err, core.Categories.For(kind))
		}
		return core.Draft{}, err
	}
	return d, nil
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove transactions by id" }
func (*rmCmd) Usage() string {
	return `kakeibo rm <id>...
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return fail("rm needs at least one id")
	}

	s, err := openSession(ctx)
	if err != nil {
		return fail("load ledger: %v", err)
	}
	defer s.close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		if !s.ctrl.RemoveTransaction(ctx, id) {
			fmt.Fprintf(stderr, "no transaction %s\n", id)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(stdout, "removed %s\n", id)
	}
	fmt.Fprintf(stdout, "balance %s\n", s.ctrl.Snapshot().TotalBalance)
	return status
}

type chartCmd struct {
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "draw the category pie chart as PNG" }
func (*chartCmd) Usage() string {
	return `kakeibo chart [-o chart.png]
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "chart.png", "Output file.")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		return fail("load ledger: %v", err)
	}
	defer s.close()

	totals := ledger.SortedCategoryTotals(s.ctrl.Snapshot().Transactions)
	file, err := os.Create(c.output)
	if err != nil {
		return fail("create %s: %v", c.output, err)
	}
	if err := report.WritePieChart(file, totals); err != nil {
		file.Close()
		os.Remove(c.output)
		return fail("draw chart: %v", err)
	}
	if err := file.Close(); err != nil {
		return fail("write %s: %v", c.output, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", c.output)
	return subcommands.ExitSuccess
}

type categoriesCmd struct{}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list the categories of each type" }
func (*categoriesCmd) Usage() string {
	return `kakeibo categories
`
}

func (*categoriesCmd) SetFlags(*flag.FlagSet) {}

func (*categoriesCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	for _, kind := range []core.Kind{core.KindIncome, core.KindExpense} {
		fmt.Fprintf(stdout, "%s:", kind)
		for _, c := range core.Categories.For(kind) {
			fmt.Fprintf(stdout, " %s", c)
		}
		fmt.Fprintln(stdout)
	}
	return subcommands.ExitSuccess
}
