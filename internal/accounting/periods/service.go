package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Guard rejects postings dated inside a locked period. Dates outside every
// configured period are accepted.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// EnsureOpen returns ErrPeriodLocked when date sits in a LOCKED period.
func (g *Guard) EnsureOpen(ctx context.Context, date time.Time) error {
	if g == nil || g.repo == nil {
		return nil
	}
	p, err := g.repo.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return nil
		}
		return err
	}
	if p.Status == PeriodStatusLocked {
		return shared.Invalid(fmt.Errorf("%w: %s", shared.ErrPeriodLocked, p.Code))
	}
	return nil
}
