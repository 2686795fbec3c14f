package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/RTO-Desk/internal/application/licensing"
	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// NewLicensesCmd creates the licenses command group.
func NewLicensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "licenses",
		Aliases: []string{"dl"},
		Short:   "Browse driving licence applications",
	}
	cmd.AddCommand(
		newLicensesListCmd(),
		newLicensesShowCmd(),
		newLicensesStatsCmd(),
		newLicensesFiltersCmd(),
	)
	return cmd
}

type listOptions struct {
	page    int
	limit   int
	search  string
	class   string
	payment string
	filter  string
	today   string
}

func newLicensesListCmd() *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of applications with the desk tiles",
		Long: "List one page of applications.  --class and --payment narrow the page on the\n" +
			"backend.  --filter applies a special filter (eligible, expiring-30,\n" +
			"expiring-45) to the fetched page and overrides --class and --payment.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLicensesList(cmd, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.page, "page", 1, "page number (1-based)")
	f.IntVar(&o.limit, "limit", 0, "page size (default: desk.default_page_size)")
	f.StringVarP(&o.search, "search", "s", "", "search text forwarded to the backend")
	f.StringVar(&o.class, "class", license.LicenseClassAll, "licence class filter")
	f.StringVar(&o.payment, "payment", string(license.PaymentAll), "payment filter: All|Paid|Pending")
	f.StringVar(&o.filter, "filter", "", "special filter: eligible|expiring-30|expiring-45")
	f.StringVar(&o.today, "today", "", "evaluate as of this date (YYYY-MM-DD) instead of the current date")
	return cmd
}

func runLicensesList(cmd *cobra.Command, o *listOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	sel, err := licensing.SelectionFromTokens(o.class, o.payment, o.filter)
	if err != nil {
		return err
	}

	now, err := parseToday(o.today, cliCtx)
	if err != nil {
		return err
	}

	ctx, cancel := operationContext(cmd, cliCtx)
	defer cancel()

	cliCtx.Logger.Debug("listing applications",
		logging.Int("page", o.page),
		logging.String("filter", sel.Special.String()),
		logging.String("class", sel.ClassFilter()),
		logging.String("payment", string(sel.PaymentFilter())),
	)
	view, err := cliCtx.Components.Desk.View(ctx, licensing.DeskQuery{
		Page:      o.page,
		Limit:     o.limit,
		Search:    o.search,
		Selection: sel,
		Now:       now,
	})
	if err != nil {
		return err
	}
	return PrintResult(cmd, deskViewOutput{view})
}

// parseToday reads --today as a calendar date in the office time zone.
func parseToday(s string, cliCtx *CLIContext) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	loc, err := cliCtx.Config.Desk.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, errors.Newf(errors.CodeInvalidDate, "invalid --today %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

func newLicensesShowCmd() *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			now, err := parseToday(today, cliCtx)
			if err != nil {
				return err
			}
			ctx, cancel := operationContext(cmd, cliCtx)
			defer cancel()

			row, err := cliCtx.Components.Desk.Application(ctx, args[0], now)
			if err != nil {
				return err
			}
			return PrintResult(cmd, rowOutput{row})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date (YYYY-MM-DD)")
	return cmd
}

func newLicensesStatsCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dataset-wide desk statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := operationContext(cmd, cliCtx)
			defer cancel()

			if refresh {
				if err := cliCtx.Components.Statistics.Invalidate(ctx); err != nil {
					cliCtx.Logger.Warn("could not drop cached statistics", logging.Err(err))
				}
			}
			stats, err := cliCtx.Components.Desk.Statistics(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, statsOutput{stats})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached statistics before reading")
	return cmd
}

func newLicensesFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the special filters and payment statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, filtersOutput{})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Output shapes
// ─────────────────────────────────────────────────────────────────────────────

type deskViewOutput struct{ view *licensing.DeskView }

func (o deskViewOutput) JSONValue() interface{} { return o.view }

func (o deskViewOutput) TableHeaders() []string {
	return []string{"ID", "NAME", "CLASS", "LL NO", "LL ISSUED", "LL EXPIRES", "DL NO", "DL ISSUED", "DL EXPIRES", "BALANCE", "PAYMENT", "FLAGS"}
}

func (o deskViewOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.view.Rows))
	for _, r := range o.view.Rows {
		rows = append(rows, rowCells(r))
	}
	return rows
}

func (o deskViewOutput) TableFooter() string {
	v := o.view
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page %d of %d (%d applications), as of %s\n",
		v.Pagination.CurrentPage, v.Pagination.TotalPages, v.Pagination.TotalItems, v.Today)
	if v.FilterLabel != "" {
		fmt.Fprintf(&sb, "Filter: %s (%d on this page)\n", v.FilterLabel, len(v.Rows))
	}
	sb.WriteString(tilesLine(v.Tiles))
	return sb.String()
}

func (o deskViewOutput) String() string {
	var sb strings.Builder
	for _, r := range o.view.Rows {
		sb.WriteString(strings.Join(rowCells(r), "\t"))
		sb.WriteString("\n")
	}
	sb.WriteString(o.TableFooter())
	return strings.TrimRight(sb.String(), "\n")
}

func tilesLine(t licensing.Tiles) string {
	if !t.Available {
		return "Statistics unavailable: " + t.Error + "\n"
	}
	return fmt.Sprintf("LL expiring: %d | LL eligible for DL: %d | Pending payments: %d (%s)\n",
		t.LLExpiring, t.LLEligibleForDL, t.PendingPaymentCount, formatAmount(t.PendingPaymentAmount))
}

func rowCells(r licensing.DeskRow) []string {
	app := r.Application
	llNo, dlNo := license.NumberPlaceholder, license.NumberPlaceholder
	if app.Learner != nil && app.Learner.Number != "" {
		llNo = app.Learner.Number
	}
	if app.Full != nil && app.Full.Number != "" {
		dlNo = app.Full.Number
	}
	return []string{
		app.ID,
		app.HolderName,
		app.LicenseClass,
		llNo,
		r.LearnerIssueDate,
		r.LearnerExpiryDate,
		dlNo,
		r.FullIssueDate,
		r.FullExpiryDate,
		formatAmount(app.Payment.BalanceAmount),
		string(r.PaymentStatus),
		rowFlags(r),
	}
}

// rowFlags summarises the special-filter membership of a row.
func rowFlags(r licensing.DeskRow) string {
	var flags []string
	if r.EligibleForUpgrade {
		flags = append(flags, "eligible")
	}
	windows := make([]int, 0, len(r.ExpiringWithin))
	for w, in := range r.ExpiringWithin {
		if in {
			windows = append(windows, w)
		}
	}
	sort.Ints(windows)
	if len(windows) > 0 {
		flags = append(flags, "expiring-"+strconv.Itoa(windows[0]))
	}
	return strings.Join(flags, ",")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type rowOutput struct{ row *licensing.DeskRow }

func (o rowOutput) JSONValue() interface{} { return o.row }

func (o rowOutput) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (o rowOutput) TableRows() [][]string {
	r := o.row
	app := r.Application
	cells := rowCells(*r)
	out := [][]string{
		{"ID", app.ID},
		{"Name", app.HolderName},
		{"Mobile", orPlaceholder(app.Mobile)},
		{"Class", orPlaceholder(app.LicenseClass)},
		{"LL number", cells[3]},
		{"LL issued", r.LearnerIssueDate},
		{"LL expires", r.LearnerExpiryDate},
		{"DL number", cells[6]},
		{"DL issued", r.FullIssueDate},
		{"DL expires", r.FullExpiryDate},
		{"Total", formatAmount(app.Payment.TotalAmount)},
		{"Paid", formatAmount(app.Payment.PaidAmount)},
		{"Balance", formatAmount(app.Payment.BalanceAmount)},
		{"Payment", string(r.PaymentStatus)},
		{"Eligible for DL", strconv.FormatBool(r.EligibleForUpgrade)},
	}
	if r.DaysSinceIssue != nil {
		out = append(out, []string{"Days since LL issue", strconv.Itoa(*r.DaysSinceIssue)})
	}
	if r.DaysUntilExpiry != nil {
		out = append(out, []string{"Days until LL expiry", strconv.Itoa(*r.DaysUntilExpiry)})
	}
	return out
}

func orPlaceholder(s string) string {
	if s == "" {
		return license.NumberPlaceholder
	}
	return s
}

type statsOutput struct{ stats *license.Statistics }

func (o statsOutput) JSONValue() interface{} { return o.stats }

func (o statsOutput) TableHeaders() []string { return []string{"TILE", "VALUE"} }

func (o statsOutput) TableRows() [][]string {
	s := o.stats
	return [][]string{
		{"Total applications", strconv.FormatInt(s.TotalApplications, 10)},
		{"LL expiring", strconv.FormatInt(s.LLExpiringCount, 10)},
		{"LL eligible for DL", strconv.FormatInt(s.LLEligibleForDLCount, 10)},
		{"Pending payments", strconv.FormatInt(s.PendingPaymentCount, 10)},
		{"Pending amount", formatAmount(s.PendingPaymentAmount)},
	}
}

func (o statsOutput) String() string {
	var sb strings.Builder
	for _, r := range o.TableRows() {
		fmt.Fprintf(&sb, "%s: %s\n", r[0], r[1])
	}
	return strings.TrimRight(sb.String(), "\n")
}

type filtersOutput struct{}

func (filtersOutput) entries() []licensing.FilterOption { return licensing.FilterCatalog() }

func (o filtersOutput) JSONValue() interface{} { return o.entries() }

func (o filtersOutput) TableHeaders() []string { return []string{"KIND", "TOKEN", "LABEL"} }

func (o filtersOutput) TableRows() [][]string {
	var rows [][]string
	for _, e := range o.entries() {
		rows = append(rows, []string{e.Kind, e.Token, e.Label})
	}
	return rows
}

func (o filtersOutput) String() string {
	var sb strings.Builder
	for _, e := range o.entries() {
		fmt.Fprintf(&sb, "%s\t%s\n", e.Token, e.Label)
	}
	return strings.TrimRight(sb.String(), "\n")
}
