package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the dashboard aggregate over a user's transactions.
type Totals struct {
	Income  float64 `json:"totalIncome"`
	Expense float64 `json:"totalExpense"`
	Balance float64 `json:"totalBalance"`
}

// BudgetProgress pairs a budget with its completion percentage.
type BudgetProgress struct {
	Budget  Budget `json:"budget"`
	Percent int    `json:"percent"`
}

// Overview is what the dashboard shows for one user.
type Overview struct {
	Totals  Totals           `json:"totals"`
	Recent  []Transaction    `json:"recent"`
	Budgets []BudgetProgress `json:"budgets"`
}

// Summarize adds up deposits and withdrawals. Transactions of any other
// type are left out of every total.
func Summarize(txs []Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		amount := decimal.NewFromFloat(t.Amount)
		switch t.Type {
		case Deposit:
			income = income.Add(amount)
		case Withdrawal:
			expense = expense.Add(amount)
		}
	}
	return Totals{
		Income:  income.InexactFloat64(),
		Expense: expense.InexactFloat64(),
		Balance: income.Sub(expense).InexactFloat64(),
	}
}

// Progress returns amount/target as a whole percentage clamped to [0, 100].
func Progress(b Budget) int {
	if b.Target <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(b.Amount).
		Div(decimal.NewFromFloat(b.Target)).
		Mul(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

// Recent returns up to n transactions, newest first. The input is not
// modified.
func Recent(txs []Transaction, n int) []Transaction {
	out := append([]Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// BuildOverview assembles the dashboard view for one user's records.
func BuildOverview(txs []Transaction, budgets []Budget) Overview {
	progress := make([]BudgetProgress, len(budgets))
	for i, b := range budgets {
		progress[i] = BudgetProgress{Budget: b, Percent: Progress(b)}
	}
	return Overview{
		Totals:  Summarize(txs),
		Recent:  Recent(txs, 5),
		Budgets: progress,
	}
}

// ChangeEvent describes a successful mutation of a user's records.
type ChangeEvent struct {
	Entity   string    `json:"entity"`
	Action   string    `json:"action"`
	EntityID string    `json:"entityId"`
	UserID   string    `json:"userId"`
	At       time.Time `json:"at"`
}

const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Activity is one entry of a user's activity feed.
type Activity struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Entity   string    `json:"entity"`
	Action   string    `json:"action"`
	EntityID string    `json:"entityId"`
	At       time.Time `json:"at"`
}
