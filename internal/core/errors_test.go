package core

import (
	"errors"
	"testing"
)

func TestFailureMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := error(Fail(ErrStorageWrite, "Failed to add budget", cause))
	if !errors.Is(err, ErrStorageWrite) || !errors.Is(err, cause) {
		t.Fatal("errors.Is should match both kind and cause")
	}
	if MessageOf(err) != "Failed to add budget" {
		t.Fatalf("message = %q", MessageOf(err))
	}
	res := ResultOf(Budget{}, err)
	if res.Success || res.Data != nil || res.Message != "Failed to add budget" {
		t.Fatalf("unexpected result %+v", res)
	}
	if ok := ResultOf(Budget{ID: "b"}, nil); !ok.Success || ok.Data.ID != "b" {
		t.Fatalf("unexpected result %+v", ok)
	}
}

func TestInvalidCapitalizesMessage(t *testing.T) {
	err := Invalid(ErrEmptyDescription)
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrEmptyDescription) {
		t.Fatal("Invalid should match ErrValidation and the cause")
	}
	if err.Message != "Description is required" {
		t.Fatalf("message = %q", err.Message)
	}
}

func TestDoneAndUnknownErrors(t *testing.T) {
	if res := Done(nil); !res.Success || res.Message != "" {
		t.Fatalf("Done(nil) = %+v", res)
	}
	if res := Done(errors.New("boom")); res.Success || res.Message != "Something went wrong" {
		t.Fatalf("Done(err) = %+v", res)
	}
	if MessageOf(nil) != "" {
		t.Fatal("MessageOf(nil) should be empty")
	}
}
