package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_BookInput(t *testing.T) {
	v := NewValidator(NewMockClocker())

	testCases := []struct {
		name        string
		input       BookInput
		constraints map[string]string
	}{
		{"valid input", BookInput{Title: "Dune", Author: "Frank Herbert", Year: 1965}, nil},
		{"all bounds at the edges", BookInput{Title: strings.Repeat("t", 100), Author: strings.Repeat("a", 30), Year: 2023}, nil},
		{"multibyte bounds at the edges", BookInput{Title: strings.Repeat("é", 100), Author: strings.Repeat("日", 30), Year: 500}, nil},
		{"single multibyte rune", BookInput{Title: "é", Author: "日", Year: 1965}, nil},
		{"empty title", BookInput{Title: "", Author: "A", Year: 1965}, map[string]string{"title": "min_length"}},
		{"title too long", BookInput{Title: strings.Repeat("t", 101), Author: "A", Year: 1965}, map[string]string{"title": "max_length"}},
		{"multibyte title too long", BookInput{Title: strings.Repeat("é", 101), Author: "A", Year: 1965}, map[string]string{"title": "max_length"}},
		{"author too long", BookInput{Title: "T", Author: strings.Repeat("a", 31), Year: 1965}, map[string]string{"author": "max_length"}},
		{"multibyte author too long", BookInput{Title: "T", Author: strings.Repeat("日", 31), Year: 1965}, map[string]string{"author": "max_length"}},
		{"every field invalid", BookInput{Year: 3000}, map[string]string{
			"title":  "min_length",
			"author": "min_length",
			"year":   "less_than_equal",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if tc.constraints == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make(map[string]string, len(verr.Errors))
			for _, fe := range verr.Errors {
				got[fe.Field] = fe.Constraint
				assert.NotEmpty(t, fe.Message)
			}
			assert.Equal(t, tc.constraints, got)
		})
	}
}

// TestValidator_YearFollowsClock ensures the upper year bound is not frozen.
func TestValidator_YearFollowsClock(t *testing.T) {
	clock := NewMockClocker()
	v := NewValidator(clock)
	input := BookInput{Title: "Dune", Author: "Frank Herbert", Year: 2024}
	assert.Error(t, v.Struct(input))

	clock.MockNow = clock.MockNow.AddDate(1, 0, 0)
	assert.NoError(t, v.Struct(input))
}

func TestValidator_Messages(t *testing.T) {
	v := NewValidator(&MockClocker{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	err := v.Struct(BookInput{Title: "Dune", Author: "Frank Herbert", Year: 100})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "should be greater than or equal to 500", verr.Errors[0].Message)

	err = v.Struct(BookInput{Title: "Dune", Author: "Frank Herbert", Year: 2026})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "should be less than or equal to 2025", verr.Errors[0].Message)
	assert.Contains(t, verr.Error(), "year")
}
