package journals

import (
	"time"

	"github.com/google/uuid"
)

// JournalStatus enumerates journal lifecycle values. An entry is PENDING only
// inside the posting transaction, until its lines are confirmed present.
type JournalStatus string

const (
	JournalStatusPending JournalStatus = "PENDING"
	JournalStatusPosted  JournalStatus = "POSTED"
)

// JournalEntry captures posting metadata. Reference is the unique,
// deterministic entry number (see EntryNumber).
type JournalEntry struct {
	ID             int64
	Reference      string
	Kind           Kind
	DocumentNumber string
	Date           time.Time
	Description    string
	SourceModule   string
	SourceID       uuid.UUID
	ReversalOf     *int64
	TotalDebit     float64
	TotalCredit    float64
	PostedBy       int64
	PostedAt       time.Time
	Status         JournalStatus
	Lines          []JournalLine
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID        int64
	JournalID int64
	LineNo    int
	AccountID int64
	Debit     float64
	Credit    float64
	Memo      string
}

// Net returns debit minus credit.
func (l JournalLine) Net() float64 {
	return l.Debit - l.Credit
}
