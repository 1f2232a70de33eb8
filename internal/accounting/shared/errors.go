package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that can never succeed on retry.
	ErrValidation = errors.New("accounting: validation failed")
	// ErrInfrastructure marks persistence or transport failures.
	ErrInfrastructure = errors.New("accounting: infrastructure failure")

	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrInvalidLine indicates a malformed journal line.
	ErrInvalidLine = errors.New("accounting: invalid journal line")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrDuplicateEntry indicates the entry number is already taken.
	ErrDuplicateEntry = errors.New("accounting: journal entry number already exists")
	// ErrAlreadyReversed indicates a compensating entry already exists.
	ErrAlreadyReversed = errors.New("accounting: journal entry already reversed")
	// ErrPeriodLocked indicates locked period.
	ErrPeriodLocked = errors.New("accounting: period locked")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
	// ErrAccountNotFound indicates an unknown account id.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrInvalidAccount indicates the account definition is incomplete.
	ErrInvalidAccount = errors.New("accounting: invalid account")
)

// BalanceTolerance is the largest debit/credit gap accepted for a posting.
const BalanceTolerance = 0.01

// UnbalancedEntryError carries the totals of a rejected posting.
type UnbalancedEntryError struct {
	TotalDebit  float64
	TotalCredit float64
	Difference  float64
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("accounting: journal lines must balance (debit %.2f, credit %.2f, difference %.2f)",
		e.TotalDebit, e.TotalCredit, e.Difference)
}

// Is lets callers match with ErrUnbalanced or ErrValidation.
func (e *UnbalancedEntryError) Is(target error) bool {
	return target == ErrUnbalanced || target == ErrValidation
}

// Invalid wraps err so that errors.Is(err, ErrValidation) holds.
func Invalid(err error) error {
	if err == nil || errors.Is(err, ErrValidation) {
		return err
	}
	return &classified{class: ErrValidation, err: err}
}

// Infra wraps err so that errors.Is(err, ErrInfrastructure) holds.
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrInfrastructure) {
		return err
	}
	return &classified{class: ErrInfrastructure, err: fmt.Errorf("%s: %w", op, err)}
}

// IsValidation reports whether err is a caller input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

type classified struct {
	class error
	err   error
}

func (c *classified) Error() string { return c.err.Error() }

func (c *classified) Unwrap() []error { return []error{c.err, c.class} }
