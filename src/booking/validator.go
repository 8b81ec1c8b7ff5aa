package booking

import (
	"regexp"
	"strings"
)

// FormData is the transient customer-submitted form. It only lives in memory
// until a Booking row snapshots it.
type FormData struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ScheduledDate   string `json:"scheduled_date,omitempty"`
}

const (
	FieldName          = "customer_name"
	FieldEmail         = "customer_email"
	FieldPhone         = "customer_phone"
	FieldAddress       = "customer_address"
	FieldNotes         = "notes"
	FieldScheduledDate = "scheduled_date"
)

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z ]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Indian mobile number, optional +91/91 prefix, 10 digits starting 6-9
	phoneRe = regexp.MustCompile(`^(\+91|91)?[6-9]\d{9}$`)
)

// ValidateForm runs every field rule and returns a field -> message map,
// empty when the form is valid. scheduledService gates the date requirement.
func ValidateForm(form FormData, scheduledService bool) map[string]string {
	errs := make(map[string]string)
	for _, field := range []string{FieldName, FieldEmail, FieldPhone, FieldAddress, FieldNotes, FieldScheduledDate} {
		if msg := ValidateField(field, form, scheduledService); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// ValidateField validates a single field with the same rules and messages as
// ValidateForm, for on-blur feedback.
func ValidateField(field string, form FormData, scheduledService bool) string {
	switch field {
	case FieldName:
		name := strings.TrimSpace(form.CustomerName)
		if name == "" {
			return "Name is required"
		}
		if len(name) < 2 {
			return "Name must be at least 2 characters"
		}
		if !nameRe.MatchString(name) {
			return "Name can only contain letters and spaces"
		}
	case FieldEmail:
		email := strings.TrimSpace(form.CustomerEmail)
		if email == "" {
			return "Email is required"
		}
		if !emailRe.MatchString(email) {
			return "Enter a valid email address"
		}
	case FieldPhone:
		phone := strings.TrimSpace(form.CustomerPhone)
		if phone == "" {
			return "Phone number is required"
		}
		if !phoneRe.MatchString(phone) {
			return "Enter a valid 10-digit mobile number"
		}
	case FieldAddress:
		if len(form.CustomerAddress) > 200 {
			return "Address must be 200 characters or less"
		}
	case FieldNotes:
		if len(form.Notes) > 500 {
			return "Notes must be 500 characters or less"
		}
	case FieldScheduledDate:
		if scheduledService && strings.TrimSpace(form.ScheduledDate) == "" {
			return "Preferred date is required"
		}
	}
	return ""
}

// NormalizePhone strips an optional +91/91 prefix so the stored value is
// always the bare 10-digit number.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if strings.HasPrefix(p, "+91") {
		return p[3:]
	}
	if strings.HasPrefix(p, "91") && len(p) == 12 {
		return p[2:]
	}
	return p
}
