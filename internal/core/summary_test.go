package core

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want Totals
	}{
		{
			name: "deposits and withdrawals",
			txs: []Transaction{
				{Type: Deposit, Amount: 500},
				{Type: Withdrawal, Amount: 200},
				{Type: Deposit, Amount: 100},
			},
			want: Totals{Income: 600, Expense: 200, Balance: 400},
		},
		{
			name: "unknown types are ignored",
			txs: []Transaction{
				{Type: Deposit, Amount: 500},
				{Type: Withdrawal, Amount: 200},
				{Type: "TRANSFER", Amount: 50},
				{Type: "", Amount: 25},
			},
			want: Totals{Income: 500, Expense: 200, Balance: 300},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.txs); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeDoesNotDrift(t *testing.T) {
	txs := []Transaction{
		{Type: Deposit, Amount: 0.1},
		{Type: Deposit, Amount: 0.2},
	}
	if got := Summarize(txs).Income; got != 0.3 {
		t.Fatalf("income = %v, want 0.3", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		amount, target float64
		want           int
	}{
		{50, 200, 25},
		{0, 100, 0},
		{150, 100, 100},
		{-10, 100, 0},
		{10, 0, 0},
		{1, 3, 33},
	}
	for _, tc := range cases {
		got := Progress(Budget{Amount: tc.amount, Target: tc.target})
		if got != tc.want {
			t.Errorf("Progress(%v/%v) = %d, want %d", tc.amount, tc.target, got, tc.want)
		}
	}
}

func TestRecentNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []Transaction
	for i := 0; i < 7; i++ {
		txs = append(txs, Transaction{ID: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	got := Recent(txs, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ID != "g" || got[4].ID != "c" {
		t.Fatalf("unexpected order: %s..%s", got[0].ID, got[4].ID)
	}
	if txs[0].ID != "a" {
		t.Fatal("input slice was reordered")
	}
}
