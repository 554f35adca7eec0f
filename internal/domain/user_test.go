package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddressFieldsValidate(t *testing.T) {
	valid := AddressFields{
		Street:       "Rua A",
		Number:       "10",
		Neighborhood: "Centro",
		ZipCode:      "01000-000",
		City:         "Sao Paulo",
		State:        "SP",
	}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	blank := AddressFields{Street: "   ", Complement: "apt 1"}
	errs := blank.Validate()
	if len(errs) != 6 {
		t.Fatalf("expected 6 errors, got %d: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], ErrStreetRequired) {
		t.Fatalf("first error should be street, got %v", errs[0])
	}
}

func TestAddressBelongsTo(t *testing.T) {
	addr := Address{ID: 1, UserID: 7}
	if !addr.BelongsTo(7) || addr.BelongsTo(8) {
		t.Fatal("ownership check is wrong")
	}
}

func TestProductValidate(t *testing.T) {
	product := Product{Name: "mug", Description: "white mug", Value: decimal.RequireFromString("9.90"), AvailableAmount: 5}
	if errs := product.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	product.Value = decimal.RequireFromString("-1")
	product.AvailableAmount = -1
	product.Name = ""
	if errs := product.Validate(); len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
}
