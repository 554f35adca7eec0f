package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

func TestProductValidateValue(t *testing.T) {
	cases := []struct {
		value string
		want  error
	}{
		{value: "0"},
		{value: "19.9"},
		{value: "19.90"},
		{value: "1.500"},
		{value: "9999999999.99"},
		{value: "1.005", want: domain.ErrValuePrecision},
		{value: "0.001", want: domain.ErrValuePrecision},
		{value: "10000000000", want: domain.ErrValueTooLarge},
		{value: "-0.01", want: domain.ErrValueNegative},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			p := domain.Product{Name: "Caneca", Description: "branca", Value: decimal.RequireFromString(tc.value)}
			errs := p.Validate()
			if tc.want == nil {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 || !errors.Is(errs[0], tc.want) {
				t.Fatalf("got %v, want [%v]", errs, tc.want)
			}
		})
	}
}
