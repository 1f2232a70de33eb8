package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

type PeriodGuard interface {
	EnsureOpen(ctx context.Context, date time.Time) error
}

// Invalidator is told when the posted ledger changes so cached reports expire.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Options configures optional collaborators of Service.
type Options struct {
	Audit       AuditPort
	Guard       PeriodGuard
	Invalidator Invalidator
	Retry       db.RetryPolicy
	Logger      *slog.Logger
}

type Service struct {
	repo   Repository
	audit  AuditPort
	guard  PeriodGuard
	cache  Invalidator
	retry  db.RetryPolicy
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		audit:  opts.Audit,
		guard:  opts.Guard,
		cache:  opts.Invalidator,
		retry:  opts.Retry,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListPosted returns confirmed entries dated within f.
func (s *Service) ListPosted(ctx context.Context, f Filter) ([]JournalEntry, error) {
	return s.repo.ListPosted(ctx, f)
}

// Get returns a posted entry by reference.
func (s *Service) Get(ctx context.Context, reference string) (JournalEntry, error) {
	return s.repo.GetByReference(ctx, reference)
}

// CreateEntry validates a balanced posting and stores header and lines as
// one unit. Validation failures are returned without touching storage.
func (s *Service) CreateEntry(ctx context.Context, input PostingInput) (JournalEntry, error) {
	in := input.normalized()
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if s.guard != nil {
		if err := s.guard.EnsureOpen(ctx, in.Date); err != nil {
			return JournalEntry{}, err
		}
	}
	entry, err := s.post(ctx, in)
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterPost(ctx, entry, "journal.post", in.PostedBy, map[string]any{
		"reference":     entry.Reference,
		"source_module": entry.SourceModule,
		"source_id":     entry.SourceID.String(),
	})
	return entry, nil
}

// ReverseEntry posts a compensating entry whose lines swap every debit and
// credit of the original. The original is left untouched.
func (s *Service) ReverseEntry(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.Reference == "" {
		return JournalEntry{}, shared.Invalid(errors.New("accounting: reference required"))
	}
	if input.Date != nil && s.guard != nil {
		if err := s.guard.EnsureOpen(ctx, *input.Date); err != nil {
			return JournalEntry{}, err
		}
	}
	var reversal JournalEntry
	err := db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			original, err := tx.LockByReference(ctx, input.Reference)
			if err != nil {
				return err
			}
			posting := PostingInput{
				Kind:           KindReversal,
				DocumentNumber: original.Reference,
				Date:           original.Date,
				Description:    defaultReversalDescription(input.Description, original.Reference),
				SourceModule:   original.SourceModule + ":REVERSAL",
				PostedBy:       input.ActorID,
				Lines:          reverseLines(original.Lines),
				reversalOf:     &original.ID,
			}
			if input.Date != nil {
				posting.Date = *input.Date
			}
			posting = posting.normalized()
			if err := posting.Validate(); err != nil {
				return err
			}
			if input.Date == nil && s.guard != nil {
				if err := s.guard.EnsureOpen(ctx, posting.Date); err != nil {
					return err
				}
			}
			reversal, err = s.insert(ctx, tx, posting)
			return err
		})
	})
	if err != nil {
		return JournalEntry{}, s.classify(err)
	}
	s.afterPost(ctx, reversal, "journal.reverse", input.ActorID, map[string]any{
		"original":  input.Reference,
		"reversal":  reversal.Reference,
		"reverseOf": *reversal.ReversalOf,
	})
	return reversal, nil
}

func (s *Service) post(ctx context.Context, in PostingInput) (JournalEntry, error) {
	var entry JournalEntry
	err := db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			entry, err = s.insert(ctx, tx, in)
			return err
		})
	})
	if err != nil {
		return JournalEntry{}, s.classify(err)
	}
	return entry, nil
}

func (s *Service) insert(ctx context.Context, tx TxRepository, in PostingInput) (JournalEntry, error) {
	reference, err := EntryNumber(in.Kind, in.DocumentNumber)
	if err != nil {
		return JournalEntry{}, err
	}
	debit, credit := in.totals()
	header := JournalEntry{
		Reference:      reference,
		Kind:           in.Kind,
		DocumentNumber: in.DocumentNumber,
		Date:           in.Date,
		Description:    in.Description,
		SourceModule:   in.SourceModule,
		SourceID:       in.SourceID,
		ReversalOf:     in.reversalOf,
		TotalDebit:     debit,
		TotalCredit:    credit,
		PostedBy:       in.PostedBy,
	}
	inserted, err := tx.InsertEntry(ctx, header)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.ConfirmEntry(ctx, inserted.ID, len(in.Lines)); err != nil {
		return JournalEntry{}, err
	}
	inserted.Status = JournalStatusPosted
	inserted.Lines = toJournalLines(inserted.ID, in.Lines)
	if inserted.PostedAt.IsZero() {
		inserted.PostedAt = s.now()
	}
	return inserted, nil
}

// classify keeps validation errors as they are and tags the rest as infrastructure.
func (s *Service) classify(err error) error {
	if shared.IsValidation(err) {
		return err
	}
	return shared.Infra("journals: post", err)
}

func (s *Service) afterPost(ctx context.Context, entry JournalEntry, action string, actor int64, meta map[string]any) {
	s.logger.Info("journal posted",
		slog.String("action", action),
		slog.String("reference", entry.Reference),
		slog.Float64("total", entry.TotalDebit),
		slog.Int("lines", len(entry.Lines)))
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  actor,
			Action:   action,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     meta,
			At:       s.now(),
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.String("reference", entry.Reference), slog.Any("error", err))
		}
	}
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return out
}

func toJournalLines(entryID int64, lines []PostingLineInput) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for i, line := range lines {
		out = append(out, JournalLine{
			JournalID: entryID,
			LineNo:    i + 1,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	return out
}

func defaultReversalDescription(desc, reference string) string {
	if desc != "" {
		return desc
	}
	return "Reversal of " + reference
}
