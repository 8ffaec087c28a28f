// Package validation collects field-level request validation failures in the
// shape the API surfaces them: a map of field name to messages, rendered as a
// 422 response before any service is invoked.
package validation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// DateLayout is the wire format for all request dates.
const DateLayout = "2006-01-02"

// Validator accumulates per-field messages.
type Validator struct {
	messages map[string][]string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{messages: make(map[string][]string)}
}

// Fail records a failure message for a field.
func (v *Validator) Fail(field, message string) {
	v.messages[field] = append(v.messages[field], message)
}

// Failed reports whether any failure has been recorded.
func (v *Validator) Failed() bool {
	return len(v.messages) > 0
}

// Messages exposes the accumulated field messages.
func (v *Validator) Messages() map[string][]string {
	return v.messages
}

// Err returns the 422 application error, or nil when validation passed.
func (v *Validator) Err() error {
	if !v.Failed() {
		return nil
	}
	return errorbank.UnprocessableFields(v.messages)
}

// RequiredDate parses a mandatory YYYY-MM-DD value. The zero time is
// returned when the value is missing or malformed.
func (v *Validator) RequiredDate(field, value string) time.Time {
	if value == "" {
		v.Fail(field, fmt.Sprintf("The %s field is required.", field))
		return time.Time{}
	}
	return v.parseDate(field, value)
}

// OptionalDate parses an optional YYYY-MM-DD value; nil when absent.
func (v *Validator) OptionalDate(field, value string) *time.Time {
	if value == "" {
		return nil
	}
	t := v.parseDate(field, value)
	if t.IsZero() {
		return nil
	}
	return &t
}

func (v *Validator) parseDate(field, value string) time.Time {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		v.Fail(field, fmt.Sprintf("The %s does not match the format Y-m-d.", field))
		return time.Time{}
	}
	return t
}

// DateOrder requires end >= start; skipped if either side failed to parse.
func (v *Validator) DateOrder(endField, startField string, start, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Fail(endField, fmt.Sprintf("The %s must be a date after or equal to %s.", endField, startField))
	}
}

// RequiredInt parses a mandatory integer value.
func (v *Validator) RequiredInt(field, value string) int64 {
	if value == "" {
		v.Fail(field, fmt.Sprintf("The %s field is required.", field))
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		v.Fail(field, fmt.Sprintf("The %s must be an integer.", field))
		return 0
	}
	return n
}

// IntInRange parses an optional integer constrained to [min, max], falling
// back to def when the value is absent.
func (v *Validator) IntInRange(field, value string, min, max, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		v.Fail(field, fmt.Sprintf("The %s must be an integer.", field))
		return def
	}
	if n < min || n > max {
		v.Fail(field, fmt.Sprintf("The %s must be between %d and %d.", field, min, max))
		return def
	}
	return n
}

// IntBetween constrains an already-parsed integer to [min, max].
func (v *Validator) IntBetween(field string, value, min, max int) {
	if value < min || value > max {
		v.Fail(field, fmt.Sprintf("The %s must be between %d and %d.", field, min, max))
	}
}

// NonNegative requires a numeric value >= 0.
func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.Fail(field, fmt.Sprintf("The %s must be at least 0.", field))
	}
}

// OneOf requires value to be among the allowed choices.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Fail(field, fmt.Sprintf("The selected %s is invalid.", field))
}
