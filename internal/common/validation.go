package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

// ValidationError is one rejected input field.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, e.Value)
}

// Rule checks one input value. It returns "" when the value is acceptable and
// the reason otherwise. Rules other than Required accept the empty string.
type Rule func(value string) string

// Validator collects field errors for a single request.
type Validator struct {
	errs []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules in order and records only the first failure for the field.
func (v *Validator) Field(name, value string, rules ...Rule) *Validator {
	for _, rule := range rules {
		if msg := rule(value); msg != "" {
			v.errs = append(v.errs, ValidationError{Field: name, Value: value, Message: msg})
			break
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns a validation-stage AppError naming every rejected field, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, len(v.errs))
	for i, e := range v.errs {
		msgs[i] = e.Error()
	}
	return NewStageError(constants.StageValidation, CodeValidation, strings.Join(msgs, "; "), ErrValidation)
}

func Required(value string) string {
	if strings.TrimSpace(value) == "" {
		return "is required"
	}
	return ""
}

// MaxLen limits the value to n runes.
func MaxLen(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}

// ISODate accepts YYYY-MM-DD.
func ISODate(value string) string {
	if value == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return "must be a date in YYYY-MM-DD format"
	}
	return ""
}

// UUID accepts a file id as issued for uploads.
func UUID(value string) string {
	if value == "" {
		return ""
	}
	if _, err := uuid.Parse(value); err != nil {
		return "must be a UUID"
	}
	return ""
}

func NonNegativeInt(value string) string {
	if value == "" {
		return ""
	}
	if n, err := strconv.Atoi(value); err != nil || n < 0 {
		return "must be a non-negative integer"
	}
	return ""
}

// PanelName accepts a panel name or one of its common synonyms.
func PanelName(value string) string {
	if value == "" {
		return ""
	}
	if _, ok := constants.CanonicalizePanel(value); !ok {
		return "must be one of " + strings.Join(constants.PanelsAsStringSlice(), ", ")
	}
	return ""
}
