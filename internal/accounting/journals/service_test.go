package journals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const (
	accInventory = int64(1300)
	accPayable   = int64(2100)
	accBank      = int64(1100)
)

var quickRetry = db.RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsed: time.Second}

type stubAudit struct {
	mu   sync.Mutex
	logs []internalShared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log internalShared.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

type stubBumper struct {
	mu    sync.Mutex
	bumps int
}

func (s *stubBumper) Bump(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumps++
	return nil
}

type lockedGuard struct{ locked time.Time }

func (g lockedGuard) EnsureOpen(_ context.Context, d time.Time) error {
	if d.Year() == g.locked.Year() && d.Month() == g.locked.Month() {
		return shared.Invalid(shared.ErrPeriodLocked)
	}
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *stubAudit, *stubBumper) {
	audit := &stubAudit{}
	bumper := &stubBumper{}
	svc := NewService(repo, Options{
		Audit:       audit,
		Invalidator: bumper,
		Retry:       quickRetry,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, audit, bumper
}

func purchase(doc string, debit, credit float64) PostingInput {
	return PostingInput{
		Kind:           KindPurchase,
		DocumentNumber: doc,
		Date:           time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		Description:    "Stock purchase",
		SourceModule:   "procurement",
		Lines: []PostingLineInput{
			{AccountID: accInventory, Debit: debit},
			{AccountID: accPayable, Credit: credit},
		},
	}
}

func TestCreateEntryBalancedPurchase(t *testing.T) {
	repo := newMemoryRepo()
	svc, audit, bumper := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), purchase("GRN-001", 1000, 1000))
	require.NoError(t, err)
	require.Equal(t, "PUR-GRN-001", entry.Reference)
	require.Equal(t, JournalStatusPosted, entry.Status)
	require.Equal(t, 1000.0, entry.TotalDebit)
	require.Equal(t, 1000.0, entry.TotalCredit)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, "PROCUREMENT", entry.SourceModule)
	require.NotEqual(t, [16]byte{}, [16]byte(entry.SourceID))

	stored, err := svc.Get(context.Background(), "PUR-GRN-001")
	require.NoError(t, err)
	require.Equal(t, entry.ID, stored.ID)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.post", audit.logs[0].Action)
	require.Equal(t, 1, bumper.bumps)
}

func TestCreateEntryRejectsUnbalancedWithDifference(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, bumper := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), purchase("GRN-002", 1000, 900))
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.ErrorIs(t, err, shared.ErrValidation)

	var unbalanced *shared.UnbalancedEntryError
	require.ErrorAs(t, err, &unbalanced)
	require.Equal(t, 100.0, unbalanced.Difference)
	require.Equal(t, 1000.0, unbalanced.TotalDebit)
	require.Equal(t, 900.0, unbalanced.TotalCredit)

	require.Zero(t, repo.txCount)
	require.Zero(t, bumper.bumps)
}

func TestCreateEntryToleratesCentRounding(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	in := purchase("GRN-003", 0, 0)
	in.Lines = []PostingLineInput{
		{AccountID: accInventory, Debit: 33.33},
		{AccountID: accInventory, Debit: 33.33},
		{AccountID: accInventory, Debit: 33.33},
		{AccountID: accPayable, Credit: 100},
	}
	entry, err := svc.CreateEntry(context.Background(), in)
	require.NoError(t, err)
	require.InDelta(t, entry.TotalDebit, entry.TotalCredit, shared.BalanceTolerance)
}

func TestCreateEntryValidation(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	cases := map[string]func(*PostingInput){
		"single line":   func(in *PostingInput) { in.Lines = in.Lines[:1] },
		"negative":      func(in *PostingInput) { in.Lines[0].Debit = -5 },
		"both sides":    func(in *PostingInput) { in.Lines[0].Credit = 1000 },
		"missing acct":  func(in *PostingInput) { in.Lines[1].AccountID = 0 },
		"zero line":     func(in *PostingInput) { in.Lines = append(in.Lines, PostingLineInput{AccountID: accBank}) },
		"unknown kind":  func(in *PostingInput) { in.Kind = "GIFT" },
		"no document":   func(in *PostingInput) { in.DocumentNumber = " " },
		"no entry date": func(in *PostingInput) { in.Date = time.Time{} },
		"sub-cent":      func(in *PostingInput) { in.Lines[0].Debit, in.Lines[1].Credit = 1000.005, 1000.005 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := purchase("GRN-V", 1000, 1000)
			mutate(&in)
			_, err := svc.CreateEntry(context.Background(), in)
			require.Error(t, err)
			require.True(t, shared.IsValidation(err), err)
		})
	}
}

func TestCreateEntryRejectsFractionalCents(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	in := purchase("GRN-C", 1000, 1000)
	in.Lines[0].Debit = 0.004
	in.Lines[1].Credit = 0.004
	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidLine)
	require.ErrorContains(t, err, "fractional cents")
	require.Zero(t, repo.count())
}

func TestCreateEntryRejectsDuplicateNumberWithoutRetry(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	_, err := svc.CreateEntry(context.Background(), purchase("GRN-010", 50, 50))
	require.NoError(t, err)

	dup := purchase("GRN-010", 70, 70)
	dup.SourceModule = "manual"
	_, err = svc.CreateEntry(context.Background(), dup)
	require.ErrorIs(t, err, shared.ErrDuplicateEntry)
	require.Equal(t, 2, repo.txCount)
	require.Equal(t, 1, repo.count())
}

func TestCreateEntryRetriesTransientFailures(t *testing.T) {
	repo := newMemoryRepo()
	repo.failTransient = 2
	svc, _, _ := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), purchase("GRN-011", 10, 10))
	require.NoError(t, err)
	require.Equal(t, 3, repo.txCount)
	require.Equal(t, 1, repo.count())
	require.Equal(t, "PUR-GRN-011", entry.Reference)
}

func TestCreateEntryIsAtomicWhenLinesFail(t *testing.T) {
	repo := newMemoryRepo()
	repo.failLines = true
	svc, _, bumper := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), purchase("GRN-012", 10, 10))
	require.ErrorIs(t, err, shared.ErrInfrastructure)
	require.False(t, shared.IsValidation(err))
	require.Zero(t, repo.count())
	require.Zero(t, bumper.bumps)
}

func TestCreateEntryRespectsLockedPeriod(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{Guard: lockedGuard{locked: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}})
	_, err := svc.CreateEntry(context.Background(), purchase("GRN-013", 10, 10))
	require.ErrorIs(t, err, shared.ErrPeriodLocked)
	require.Zero(t, repo.txCount)
}

func TestListPostedSkipsHeaderOnlyEntries(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	_, err := svc.CreateEntry(context.Background(), purchase("GRN-020", 10, 10))
	require.NoError(t, err)
	repo.seedPending(JournalEntry{Reference: "PUR-GRN-021", Date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)})

	entries, err := svc.ListPosted(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "PUR-GRN-020", entries[0].Reference)

	_, err = svc.Get(context.Background(), "PUR-GRN-021")
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
}

func TestReverseEntryNetsToZero(t *testing.T) {
	repo := newMemoryRepo()
	svc, audit, _ := newTestService(repo)
	in := purchase("GRN-030", 0, 0)
	in.Lines = []PostingLineInput{
		{AccountID: accInventory, Debit: 800},
		{AccountID: accBank, Debit: 200},
		{AccountID: accPayable, Credit: 1000},
	}
	original, err := svc.CreateEntry(context.Background(), in)
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(context.Background(), ReverseInput{Reference: original.Reference, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, "REV-PUR-GRN-030", reversal.Reference)
	require.Equal(t, KindReversal, reversal.Kind)
	require.NotNil(t, reversal.ReversalOf)
	require.Equal(t, original.ID, *reversal.ReversalOf)
	require.Equal(t, original.Date, reversal.Date)
	require.Equal(t, "Reversal of PUR-GRN-030", reversal.Description)

	net := map[int64]float64{}
	for _, e := range []JournalEntry{original, reversal} {
		for _, l := range e.Lines {
			net[l.AccountID] += l.Net()
		}
	}
	require.Len(t, net, 3)
	for acc, v := range net {
		require.Zero(t, v, "account %d", acc)
	}

	after, err := svc.Get(context.Background(), original.Reference)
	require.NoError(t, err)
	require.Len(t, after.Lines, len(original.Lines))
	for i, l := range after.Lines {
		require.Equal(t, original.Lines[i].AccountID, l.AccountID)
		require.Equal(t, original.Lines[i].Debit, l.Debit)
		require.Equal(t, original.Lines[i].Credit, l.Credit)
	}
	require.Equal(t, "journal.reverse", audit.logs[1].Action)
}

func TestReverseEntryOnlyOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	original, err := svc.CreateEntry(context.Background(), purchase("GRN-031", 10, 10))
	require.NoError(t, err)

	_, err = svc.ReverseEntry(context.Background(), ReverseInput{Reference: original.Reference})
	require.NoError(t, err)
	_, err = svc.ReverseEntry(context.Background(), ReverseInput{Reference: original.Reference})
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)

	_, err = svc.ReverseEntry(context.Background(), ReverseInput{Reference: "PUR-MISSING"})
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
}

func TestReverseEntryHonoursTargetDate(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	original, err := svc.CreateEntry(context.Background(), purchase("GRN-032", 10, 10))
	require.NoError(t, err)

	target := time.Date(2024, time.April, 1, 15, 30, 0, 0, time.UTC)
	reversal, err := svc.ReverseEntry(context.Background(), ReverseInput{Reference: original.Reference, Date: &target})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), reversal.Date)
}

func TestConcurrentPostingsStayBalanced(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateEntry(context.Background(), purchase(fmt.Sprintf("GRN-C%02d", i), float64(i+1)*10.01, float64(i+1)*10.01))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	entries, err := svc.ListPosted(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, n)
	for _, e := range entries {
		var d, c float64
		for _, l := range e.Lines {
			d += l.Debit
			c += l.Credit
		}
		require.InDelta(t, d, c, shared.BalanceTolerance)
	}
}

func TestEntryNumber(t *testing.T) {
	cases := []struct {
		kind Kind
		doc  string
		want string
	}{
		{KindPurchase, "INV-77", "PUR-INV-77"},
		{KindPayment, " 1001 ", "PAY-1001"},
		{KindAdjustment, "SA-3", "ADJ-SA-3"},
		{KindCOGS, "DO-9", "COGS-DO-9"},
		{KindReversal, "PUR-INV-77", "REV-PUR-INV-77"},
	}
	for _, tc := range cases {
		got, err := EntryNumber(tc.kind, tc.doc)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
	_, err := EntryNumber("BOGUS", "1")
	require.ErrorIs(t, err, shared.ErrValidation)
}
