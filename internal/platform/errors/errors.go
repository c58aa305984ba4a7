package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrConflict marks a transient per-key contention failure. Callers retry
	// it once before surfacing it.
	ErrConflict = errors.New("concurrency conflict")
	// ErrInsufficientData is a soft condition: the step is skipped and the
	// input returned unchanged.
	ErrInsufficientData = errors.New("insufficient data")
)

// Violation names one broken rule of a validated value.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError carries every violated rule at once.
type ValidationError struct {
	Subject    string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("invalid %s", e.Subject)
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// HasRule reports whether rule is among the violations.
func (e *ValidationError) HasRule(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Validator accumulates violations; Err returns nil when none were added.
type Validator struct {
	subject    string
	violations []Violation
}

func NewValidator(subject string) *Validator {
	return &Validator{subject: subject}
}

func (v *Validator) Check(ok bool, field, rule, format string, args ...any) {
	if ok {
		return
	}
	v.violations = append(v.violations, Violation{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (v *Validator) Err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Subject: v.subject, Violations: append([]Violation(nil), v.violations...)}
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
