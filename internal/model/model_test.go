package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseFoodStatus(t *testing.T) {
	tests := []struct {
		in   string
		want FoodStatus
		ok   bool
	}{
		{"Available", FoodAvailable, true},
		{"available", FoodAvailable, true},
		{" DONATED ", FoodDonated, true},
		{"gone", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseFoodStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFoodStatus(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RequestStatus
		terminal bool
	}{
		{RequestPending, false},
		{RequestAccepted, true},
		{RequestRejected, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%q.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestQuantityHint(t *testing.T) {
	tests := []struct {
		quantity string
		want     int
	}{
		{"5 boxes", 5},
		{"about 12 servings, 3 trays", 12},
		{"serves 40", 40},
		{"a few", 0},
		{"", 0},
	}

	for _, tt := range tests {
		f := Food{Quantity: tt.quantity}
		if got := f.QuantityHint(); got != tt.want {
			t.Errorf("QuantityHint(%q) = %d, want %d", tt.quantity, got, tt.want)
		}
	}
}

func TestSameEmail(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"d@x.org", "d@x.org", true},
		{"D@X.org", "d@x.ORG", true},
		{" d@x.org", "d@x.org ", true},
		{"d@x.org", "e@x.org", false},
		{"", "", false},
		{"d@x.org", "", false},
	}

	for _, tt := range tests {
		if got := SameEmail(tt.a, tt.b); got != tt.want {
			t.Errorf("SameEmail(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jane doe", "Jane Doe"},
		{"  JANE   DOE ", "Jane Doe"},
		{"élodie", "Élodie"},
		{"", "Anonymous"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("creating food: %w", Invalid("name", "required"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected wrapped ValidationError to match ErrValidation")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("expected field 'name', got %+v", ve)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("ValidationError must not match ErrNotFound")
	}
}
