package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFormEmptyScheduled(t *testing.T) {
	errs := ValidateForm(FormData{}, true)

	assert.Len(t, errs, 4)
	assert.Contains(t, errs, FieldName)
	assert.Contains(t, errs, FieldEmail)
	assert.Contains(t, errs, FieldPhone)
	assert.Contains(t, errs, FieldScheduledDate)
}

func TestValidateFormEmptyInstant(t *testing.T) {
	errs := ValidateForm(FormData{}, false)

	assert.Len(t, errs, 3)
	assert.NotContains(t, errs, FieldScheduledDate)
}

func TestValidateFormValid(t *testing.T) {
	errs := ValidateForm(FormData{
		CustomerName:  "Ravi Kumar",
		CustomerEmail: "ravi@example.com",
		CustomerPhone: "+919876543210",
		ScheduledDate: "2025-07-01 10:00:00 +05:30",
	}, true)

	assert.Empty(t, errs)
}

func TestValidateNameRules(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"Ravi Kumar", true},
		{"R", false},
		{"Ravi2", false},
		{"", false},
	}
	for _, tc := range cases {
		msg := ValidateField(FieldName, FormData{CustomerName: tc.name}, false)
		if tc.valid {
			assert.Empty(t, msg, tc.name)
		} else {
			assert.NotEmpty(t, msg, tc.name)
		}
	}
}

func TestValidatePhonePatterns(t *testing.T) {
	valid := []string{"+919876543210", "919876543210", "9876543210", "6123456789"}
	for _, p := range valid {
		assert.Empty(t, ValidateField(FieldPhone, FormData{CustomerPhone: p}, false), p)
	}
	invalid := []string{"1234567890", "98765", "+9198765432100", "abcdefghij", "5876543210"}
	for _, p := range invalid {
		assert.NotEmpty(t, ValidateField(FieldPhone, FormData{CustomerPhone: p}, false), p)
	}
}

func TestNormalizePhone(t *testing.T) {
	for _, p := range []string{"+919876543210", "919876543210", "9876543210"} {
		assert.Equal(t, "9876543210", NormalizePhone(p), p)
	}
}

func TestValidateOptionalFieldLimits(t *testing.T) {
	assert.Empty(t, ValidateField(FieldAddress, FormData{CustomerAddress: strings.Repeat("a", 200)}, false))
	assert.NotEmpty(t, ValidateField(FieldAddress, FormData{CustomerAddress: strings.Repeat("a", 201)}, false))
	assert.Empty(t, ValidateField(FieldNotes, FormData{Notes: strings.Repeat("n", 500)}, false))
	assert.NotEmpty(t, ValidateField(FieldNotes, FormData{Notes: strings.Repeat("n", 501)}, false))
}

func TestSingleFieldMatchesWholeForm(t *testing.T) {
	form := FormData{CustomerName: "X9", CustomerPhone: "12345"}
	whole := ValidateForm(form, true)
	for _, field := range []string{FieldName, FieldEmail, FieldPhone, FieldAddress, FieldNotes, FieldScheduledDate} {
		single := ValidateField(field, form, true)
		assert.Equal(t, whole[field], single, field)
	}
}
