package journals

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// sourceNamespace seeds deterministic source ids for entries posted without one.
var sourceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("odyssey-ledger/journals"))

// PostingLineInput describes a journal line for posting request.
type PostingLineInput struct {
	AccountID int64
	Debit     float64
	Credit    float64
	Memo      string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Kind           Kind
	DocumentNumber string
	Date           time.Time
	Description    string
	SourceModule   string
	SourceID       uuid.UUID
	PostedBy       int64
	Lines          []PostingLineInput

	reversalOf *int64
}

// Validate ensures posting input meets minimum criteria. An imbalance is
// reported as *shared.UnbalancedEntryError carrying the difference.
func (in PostingInput) Validate() error {
	if _, err := EntryNumber(in.Kind, in.DocumentNumber); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return shared.Invalid(errors.New("accounting: entry date required"))
	}
	if len(in.Lines) < 2 {
		return shared.Invalid(shared.ErrTooFewLines)
	}
	debits := make([]float64, 0, len(in.Lines))
	credits := make([]float64, 0, len(in.Lines))
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return shared.Invalid(fmt.Errorf("%w: line %d missing account", shared.ErrInvalidLine, idx))
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.Invalid(fmt.Errorf("%w: line %d negative amount", shared.ErrInvalidLine, idx))
		}
		if !shared.WholeCents(line.Debit) || !shared.WholeCents(line.Credit) {
			return shared.Invalid(fmt.Errorf("%w: line %d amount has fractional cents", shared.ErrInvalidLine, idx))
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.Invalid(fmt.Errorf("%w: line %d cannot be both debit and credit", shared.ErrInvalidLine, idx))
		}
		if line.Debit == 0 && line.Credit == 0 {
			return shared.Invalid(fmt.Errorf("%w: line %d has no amount", shared.ErrInvalidLine, idx))
		}
		debits = append(debits, line.Debit)
		credits = append(credits, line.Credit)
	}
	debit, credit, diff, ok := shared.Balanced(debits, credits)
	if !ok {
		return &shared.UnbalancedEntryError{TotalDebit: debit, TotalCredit: credit, Difference: diff}
	}
	return nil
}

// normalized fills defaults. Amounts are left as given for Validate to judge.
func (in PostingInput) normalized() PostingInput {
	out := in
	out.Kind = Kind(strings.ToUpper(strings.TrimSpace(string(in.Kind))))
	out.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	if !in.Date.IsZero() {
		y, m, d := in.Date.Date()
		out.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if out.SourceModule == "" {
		out.SourceModule = "GL"
	}
	out.SourceModule = strings.ToUpper(out.SourceModule)
	if out.SourceID == uuid.Nil {
		ref, _ := EntryNumber(out.Kind, out.DocumentNumber)
		out.SourceID = uuid.NewSHA1(sourceNamespace, []byte(out.SourceModule+":"+ref))
	}
	out.Lines = append([]PostingLineInput(nil), in.Lines...)
	return out
}

// totals returns rounded debit and credit sums.
func (in PostingInput) totals() (float64, float64) {
	debits := make([]float64, 0, len(in.Lines))
	credits := make([]float64, 0, len(in.Lines))
	for _, l := range in.Lines {
		debits = append(debits, l.Debit)
		credits = append(credits, l.Credit)
	}
	return shared.Sum(debits...), shared.Sum(credits...)
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	Reference   string
	ActorID     int64
	Description string
	// Date defaults to the original entry date.
	Date *time.Time
}
