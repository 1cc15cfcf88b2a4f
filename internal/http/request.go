package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Fail(errMalformedBody, "Request body is required", err)
		}
		if errors.Is(err, core.ErrInvalidAmount) {
			return core.Invalid(core.ErrInvalidAmount)
		}
		return core.Fail(errMalformedBody, "Invalid request body", err)
	}
	if dec.More() {
		return core.Fail(errMalformedBody, "Invalid request body", errors.New("trailing data after JSON object"))
	}
	return nil
}

// amount accepts 12.5, "12.5" or "12,50" and rounds to cents.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = amount(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("amount %s: %w", b, core.ErrInvalidAmount)
	}
	*a = amount(v)
	return nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type transactionRequest struct {
	Description string  `json:"description"`
	Amount      *amount `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
}

// toNew fails when amount is absent; zero is only accepted when sent.
func (t transactionRequest) toNew() (core.NewTransaction, error) {
	if t.Amount == nil {
		return core.NewTransaction{}, core.Invalid(core.ErrInvalidAmount)
	}
	return core.NewTransaction{
		Description: strings.TrimSpace(t.Description),
		Amount:      float64(*t.Amount),
		Type:        core.TransactionType(strings.ToUpper(strings.TrimSpace(t.Type))),
		Category:    strings.TrimSpace(t.Category),
	}, nil
}

type budgetRequest struct {
	Description string  `json:"description"`
	Amount      amount  `json:"amount"`
	Target      amount  `json:"target"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	EndDate     *string `json:"endDate"`
}

func (b budgetRequest) toNew() core.NewBudget {
	return core.NewBudget{
		Description: strings.TrimSpace(b.Description),
		Amount:      float64(b.Amount),
		Target:      float64(b.Target),
		Type:        core.BudgetType(strings.ToUpper(strings.TrimSpace(b.Type))),
		Category:    strings.TrimSpace(b.Category),
		EndDate:     b.EndDate,
	}
}

// budgetPatchRequest distinguishes absent fields (nil) from zero values.
type budgetPatchRequest struct {
	Description *string `json:"description"`
	Amount      *amount `json:"amount"`
	Target      *amount `json:"target"`
	Category    *string `json:"category"`
	EndDate     *string `json:"endDate"`
}

func (p budgetPatchRequest) toPatch() core.BudgetPatch {
	patch := core.BudgetPatch{
		Description: p.Description,
		Category:    p.Category,
		EndDate:     p.EndDate,
	}
	if p.Amount != nil {
		v := float64(*p.Amount)
		patch.Amount = &v
	}
	if p.Target != nil {
		v := float64(*p.Target)
		patch.Target = &v
	}
	return patch
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// limitParam parses ?limit=, returning def when it is absent or invalid.
func limitParam(r *http.Request, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || v < 0 {
		return def
	}
	return v
}
