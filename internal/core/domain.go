package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"

	Expense BudgetType = "EXPENSE"
	Savings BudgetType = "SAVINGS"
)

type (
	TransactionType string
	BudgetType      string

	// Category is the denormalized snapshot embedded in a transaction or
	// budget at write time. It is never kept in sync afterwards.
	Category struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		UserID      string    `json:"userId"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	User struct {
		ID           string    `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"passwordHash,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID           string          `json:"id"`
		UserID       string          `json:"userId"`
		Amount       float64         `json:"amount"`
		Description  string          `json:"description"`
		Type         TransactionType `json:"type"`
		Category     string          `json:"category"`
		CategoryData *Category       `json:"categoryData,omitempty"`
		CreatedAt    time.Time       `json:"createdAt"`
		UpdatedAt    time.Time       `json:"updatedAt"`
	}

	Budget struct {
		ID           string     `json:"id"`
		UserID       string     `json:"userId"`
		Amount       float64    `json:"amount"`
		Target       float64    `json:"target"`
		Description  string     `json:"description"`
		Type         BudgetType `json:"type"`
		Category     string     `json:"category"`
		EndDate      *string    `json:"endDate"`
		CategoryData *Category  `json:"categoryData,omitempty"`
		CreatedAt    time.Time  `json:"createdAt"`
		UpdatedAt    time.Time  `json:"updatedAt"`
	}

	// NewTransaction is the caller-supplied part of a transaction.
	NewTransaction struct {
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category,omitempty"`
	}

	// NewBudget is the caller-supplied part of a budget.
	NewBudget struct {
		Amount      float64    `json:"amount"`
		Target      float64    `json:"target"`
		Description string     `json:"description"`
		Type        BudgetType `json:"type"`
		Category    string     `json:"category,omitempty"`
		EndDate     *string    `json:"endDate,omitempty"`
	}

	// BudgetPatch holds the fields of a partial budget update. Nil fields are
	// left untouched.
	BudgetPatch struct {
		Description *string  `json:"description,omitempty"`
		Amount      *float64 `json:"amount,omitempty"`
		Target      *float64 `json:"target,omitempty"`
		Category    *string  `json:"category,omitempty"`
		EndDate     *string  `json:"endDate,omitempty"`
	}
)

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidAmount    = errors.New("amount must be a non-negative number")
	ErrInvalidTarget    = errors.New("target must be greater than zero")
	ErrInvalidType      = errors.New("invalid type")
	ErrEmptyUsername    = errors.New("username is required")
	ErrInvalidEmail     = errors.New("a valid email is required")
	ErrShortPassword    = errors.New("password must be at least 6 characters")
)

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

func (t BudgetType) Valid() bool {
	return t == Expense || t == Savings
}

// Validate checks a transaction at the call boundary. The store itself does
// not call it.
func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.Description) == "" {
		return ErrEmptyDescription
	}
	if n.Amount < 0 {
		return ErrInvalidAmount
	}
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Validate checks a budget at the call boundary.
func (n NewBudget) Validate() error {
	if strings.TrimSpace(n.Description) == "" {
		return ErrEmptyDescription
	}
	if n.Amount < 0 {
		return ErrInvalidAmount
	}
	if n.Target <= 0 {
		return ErrInvalidTarget
	}
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Validate checks only the fields present in the patch.
func (p BudgetPatch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return ErrEmptyDescription
	}
	if p.Amount != nil && *p.Amount < 0 {
		return ErrInvalidAmount
	}
	if p.Target != nil && *p.Target <= 0 {
		return ErrInvalidTarget
	}
	return nil
}

// ValidateRegistration checks sign-up fields before they reach the store.
func ValidateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	if len(password) < 6 {
		return ErrShortPassword
	}
	return nil
}
