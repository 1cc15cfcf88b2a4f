package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func (c *ctl) txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}
	cmd.AddCommand(c.txAddCmd(), c.txListCmd())
	return cmd
}

func (c *ctl) txAddCmd() *cobra.Command {
	var description, amount, kind, category string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a deposit or withdrawal",
		Example: `  fintrackctl tx add --description Salary --amount 1200 --type deposit --category Work
  fintrackctl tx add --description Rent --amount "450,50" --type withdrawal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, core.Transaction{}, err, printTransaction)
			}
			value, err := core.ParseAmount(amount)
			if err != nil {
				return emit(c, core.Transaction{}, core.Invalid(err), printTransaction)
			}
			in := core.NewTransaction{
				Description: strings.TrimSpace(description),
				Amount:      value,
				Type:        core.TransactionType(strings.ToUpper(kind)),
				Category:    strings.TrimSpace(category),
			}
			if err := in.Validate(); err != nil {
				return emit(c, core.Transaction{}, core.Invalid(err), printTransaction)
			}
			tx, err := c.app.Ledger.Transactions.Add(cmd.Context(), userID, in)
			return emit(c, tx, err, printTransaction)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "What the transaction is for")
	cmd.Flags().StringVar(&amount, "amount", "", "Non-negative amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&kind, "type", "", "deposit or withdrawal")
	cmd.Flags().StringVar(&category, "category", "", "Category name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (c *ctl) txListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current user's transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, []core.Transaction(nil), err, printTransactions)
			}
			txs, err := c.app.Ledger.Transactions.List(cmd.Context(), userID)
			return emit(c, txs, err, printTransactions)
		},
	}
}

func (c *ctl) budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage expense and savings budgets",
	}
	cmd.AddCommand(c.budgetAddCmd(), c.budgetListCmd(), c.budgetUpdateCmd(), c.budgetDeleteCmd())
	return cmd
}

type budgetFlags struct {
	description, amount, target, kind, category, endDate string
}

func (f *budgetFlags) register(cmd *cobra.Command, withType bool) {
	cmd.Flags().StringVar(&f.description, "description", "", "What the budget is for")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount spent or saved so far")
	cmd.Flags().StringVar(&f.target, "target", "", "Target amount, greater than zero")
	cmd.Flags().StringVar(&f.category, "category", "", "Category name, empty to clear")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "Optional end date, e.g. 2026-12-31")
	if withType {
		cmd.Flags().StringVar(&f.kind, "type", "", "expense or savings")
	}
}

func (c *ctl) budgetAddCmd() *cobra.Command {
	var f budgetFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, core.Budget{}, err, printBudget)
			}
			in, err := f.newBudget(cmd)
			if err == nil {
				err = in.Validate()
			}
			if err != nil {
				return emit(c, core.Budget{}, core.Invalid(err), printBudget)
			}
			b, err := c.app.Ledger.Budgets.Add(cmd.Context(), userID, in)
			return emit(c, b, err, printBudget)
		},
	}
	f.register(cmd, true)
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (f *budgetFlags) newBudget(cmd *cobra.Command) (core.NewBudget, error) {
	in := core.NewBudget{
		Description: strings.TrimSpace(f.description),
		Type:        core.BudgetType(strings.ToUpper(f.kind)),
		Category:    strings.TrimSpace(f.category),
	}
	if cmd.Flags().Changed("amount") {
		v, err := core.ParseAmount(f.amount)
		if err != nil {
			return in, err
		}
		in.Amount = v
	}
	v, err := core.ParseAmount(f.target)
	if err != nil {
		return in, core.ErrInvalidTarget
	}
	in.Target = v
	if cmd.Flags().Changed("end-date") {
		end := strings.TrimSpace(f.endDate)
		in.EndDate = &end
	}
	return in, nil
}

// patch holds only the flags given on the command line.
func (f *budgetFlags) patch(cmd *cobra.Command) (core.BudgetPatch, error) {
	var p core.BudgetPatch
	flags := cmd.Flags()
	if flags.Changed("description") {
		d := strings.TrimSpace(f.description)
		p.Description = &d
	}
	if flags.Changed("amount") {
		v, err := core.ParseAmount(f.amount)
		if err != nil {
			return p, err
		}
		p.Amount = &v
	}
	if flags.Changed("target") {
		v, err := core.ParseAmount(f.target)
		if err != nil {
			return p, core.ErrInvalidTarget
		}
		p.Target = &v
	}
	if flags.Changed("category") {
		cat := strings.TrimSpace(f.category)
		p.Category = &cat
	}
	if flags.Changed("end-date") {
		end := strings.TrimSpace(f.endDate)
		p.EndDate = &end
	}
	return p, nil
}

func (c *ctl) budgetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current user's budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, []core.Budget(nil), err, printBudgets)
			}
			budgets, err := c.app.Ledger.Budgets.List(cmd.Context(), userID)
			return emit(c, budgets, err, printBudgets)
		},
	}
}

func (c *ctl) budgetUpdateCmd() *cobra.Command {
	var f budgetFlags
	cmd := &cobra.Command{
		Use:   "update <budget-id>",
		Short: "Change fields of a budget; omitted flags are left as they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, core.Budget{}, err, printBudget)
			}
			p, err := f.patch(cmd)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				return emit(c, core.Budget{}, core.Invalid(err), printBudget)
			}
			b, err := c.app.Ledger.Budgets.Update(cmd.Context(), userID, args[0], p)
			return emit(c, b, err, printBudget)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (c *ctl) budgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return c.emitDone("", err)
			}
			return c.emitDone("Budget deleted", c.app.Ledger.Budgets.Delete(cmd.Context(), userID, args[0]))
		},
	}
}

func (c *ctl) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, recent transactions and budget progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, core.Overview{}, err, printOverview)
			}
			ov, err := c.app.Ledger.Dashboard.Overview(cmd.Context(), userID)
			return emit(c, ov, err, printOverview)
		},
	}
}

func (c *ctl) activityCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the current user's activity feed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.currentUser(cmd.Context())
			if err != nil {
				return emit(c, []core.Activity(nil), err, printActivity)
			}
			feed, err := c.app.Ledger.Activity.List(cmd.Context(), userID, limit)
			return emit(c, feed, err, printActivity)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries, 0 for all")
	return cmd
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func printTransaction(w io.Writer, t core.Transaction) {
	fmt.Fprintf(w, "Recorded %s %s %q (id %s)\n", strings.ToLower(string(t.Type)), money(t.Amount), t.Description, t.ID)
}

func printTransactions(w io.Writer, txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.CreatedAt.Format("2006-01-02"), t.Type, money(t.Amount), t.Category, t.Description)
	}
	tw.Flush()
}

func printBudget(w io.Writer, b core.Budget) {
	fmt.Fprintf(w, "Budget %s %q: %s of %s (%d%%)\n", b.ID, b.Description, money(b.Amount), money(b.Target), core.Progress(b))
}

func printBudgets(w io.Writer, budgets []core.Budget) {
	if len(budgets) == 0 {
		fmt.Fprintln(w, "No budgets")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tTARGET\tPROGRESS\tCATEGORY\tEND\tDESCRIPTION")
	for _, b := range budgets {
		end := "-"
		if b.EndDate != nil && *b.EndDate != "" {
			end = *b.EndDate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\t%s\n",
			b.ID, b.Type, money(b.Amount), money(b.Target), core.Progress(b), b.Category, end, b.Description)
	}
	tw.Flush()
}

func printOverview(w io.Writer, ov core.Overview) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Income\t%s\t\n", money(ov.Totals.Income))
	fmt.Fprintf(tw, "Expense\t%s\t\n", money(ov.Totals.Expense))
	fmt.Fprintf(tw, "Balance\t%s\t\n", money(ov.Totals.Balance))
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent transactions")
	printTransactions(w, ov.Recent)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Budgets")
	if len(ov.Budgets) == 0 {
		fmt.Fprintln(w, "No budgets")
		return
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, bp := range ov.Budgets {
		fmt.Fprintf(tw, "%s\t%s/%s\t%d%%\n", bp.Budget.Description, money(bp.Budget.Amount), money(bp.Budget.Target), bp.Percent)
	}
	tw.Flush()
}

func printActivity(w io.Writer, feed []core.Activity) {
	if len(feed) == 0 {
		fmt.Fprintln(w, "No activity")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tENTITY\tACTION\tID")
	for _, a := range feed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.At.Format("2006-01-02 15:04"), a.Entity, a.Action, a.EntityID)
	}
	tw.Flush()
}
