package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
	Retry              db.RetryPolicy
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	policy      Policy
	retry       db.RetryPolicy
	integration IntegrationHandler
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig, integration IntegrationHandler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		policy:      Policy{AllowNegativeStock: cfg.AllowNegativeStock},
		retry:       cfg.Retry,
		integration: integration,
		logger:      logger,
		now:         time.Now,
	}
}

// ApplyMovement applies one movement to its item. The item row is locked
// for the whole read-compute-write, and the movement key is claimed by
// insert, so a repeated key returns the current state with Duplicate set.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (MovementResult, error) {
	m, err := input.movement()
	if err != nil {
		return MovementResult{}, shared.Invalid(err)
	}
	var result MovementResult
	err = db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			result, err = s.apply(ctx, tx, m)
			return err
		})
	})
	if err != nil {
		if isRejection(err) {
			return MovementResult{}, shared.Invalid(err)
		}
		return MovementResult{}, shared.Infra("inventory: apply movement", err)
	}

	if result.Duplicate {
		s.logger.Info("inventory movement already applied",
			slog.Int64("item_id", m.ItemID),
			slog.String("type", string(m.Type)),
			slog.String("reference", m.ReferenceType+":"+m.ReferenceID))
	} else {
		s.logger.Info("inventory movement applied",
			slog.Int64("item_id", m.ItemID),
			slog.String("type", string(m.Type)),
			slog.Float64("qty", result.Item.Qty),
			slog.Float64("avg_cost", result.Item.AvgCost))
		s.record(ctx, input.ActorID, result.Movement)
	}
	if s.integration != nil {
		if err := s.integration.HandleMovementApplied(ctx, newAppliedEvent(result.Movement, result.Duplicate)); err != nil {
			return result, fmt.Errorf("inventory: integration: %w", err)
		}
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, tx TxRepository, m Movement) (MovementResult, error) {
	item, err := tx.LockItem(ctx, m.ItemID)
	if err != nil {
		return MovementResult{}, err
	}
	id, inserted, err := tx.InsertMovement(ctx, m)
	if err != nil {
		return MovementResult{}, err
	}
	if !inserted {
		existing, err := tx.FindMovement(ctx, m.Key())
		if err != nil {
			return MovementResult{}, err
		}
		return MovementResult{Item: item, Movement: existing, Duplicate: true}, nil
	}
	next, applied, err := Apply(item, m, s.policy)
	if err != nil {
		return MovementResult{}, err
	}
	next.UpdatedAt = s.now().UTC()
	m.ID = id
	m.AppliedCost = applied
	m.QtyAfter = next.Qty
	m.CostAfter = next.AvgCost
	if m.PostedAt.IsZero() {
		m.PostedAt = next.UpdatedAt
	}
	if err := tx.CompleteMovement(ctx, m); err != nil {
		return MovementResult{}, err
	}
	if err := tx.SaveItem(ctx, next); err != nil {
		return MovementResult{}, err
	}
	return MovementResult{Item: next, Movement: m}, nil
}

// GetItem returns the current stock position.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, ErrItemNotFound) {
		return Item{}, shared.Invalid(err)
	}
	if err != nil {
		return Item{}, shared.Infra("inventory: get item", err)
	}
	return item, nil
}

// StockCard lists the latest movements of an item, newest first.
func (s *Service) StockCard(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	if itemID <= 0 {
		return nil, shared.Invalid(errors.New("inventory: item id required"))
	}
	list, err := s.repo.ListMovements(ctx, itemID, limit)
	if err != nil {
		return nil, shared.Infra("inventory: stock card", err)
	}
	return list, nil
}

// Revalue replays the movement log of one item under its row lock and
// stores the result when it differs from the stored position.
func (s *Service) Revalue(ctx context.Context, itemID int64) (Item, bool, error) {
	var (
		replayed Item
		repaired bool
	)
	err := db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			stored, err := tx.LockItem(ctx, itemID)
			if err != nil {
				return err
			}
			movements, err := tx.MovementsForItem(ctx, itemID)
			if err != nil {
				return err
			}
			replayed, err = Replay(stored, movements)
			if err != nil {
				return err
			}
			repaired = Drifted(stored, replayed)
			if !repaired {
				replayed = stored
				return nil
			}
			replayed.UpdatedAt = s.now().UTC()
			return tx.SaveItem(ctx, replayed)
		})
	})
	if err != nil {
		return Item{}, false, shared.Infra("inventory: revalue", err)
	}
	if repaired {
		s.logger.Warn("inventory position repaired from movement log",
			slog.Int64("item_id", itemID),
			slog.Float64("qty", replayed.Qty),
			slog.Float64("avg_cost", replayed.AvgCost))
	}
	return replayed, repaired, nil
}

// RevalueAll runs Revalue over every item and returns how many were repaired.
func (s *Service) RevalueAll(ctx context.Context) (int, error) {
	ids, err := s.repo.ListItemIDs(ctx)
	if err != nil {
		return 0, shared.Infra("inventory: list items", err)
	}
	repaired := 0
	for _, id := range ids {
		_, fixed, err := s.Revalue(ctx, id)
		if err != nil {
			return repaired, err
		}
		if fixed {
			repaired++
		}
	}
	return repaired, nil
}

func (s *Service) record(ctx context.Context, actor int64, m Movement) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actor,
		Action:   fmt.Sprintf("inventory:%s", m.Type),
		Entity:   "inventory_movement",
		EntityID: fmt.Sprintf("%d", m.ID),
		Meta: map[string]any{
			"item_id":   m.ItemID,
			"qty":       m.Qty,
			"unit_cost": m.AppliedCost,
			"reference": m.ReferenceType + ":" + m.ReferenceID,
		},
		At: s.now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.Int64("movement_id", m.ID), slog.Any("error", err))
	}
}

func (in MovementInput) movement() (Movement, error) {
	if in.ItemID <= 0 {
		return Movement{}, errors.New("inventory: item id required")
	}
	if !in.Type.Valid() {
		return Movement{}, ErrInvalidMovement
	}
	if in.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if in.UnitCost < 0 {
		return Movement{}, ErrInvalidUnitCost
	}
	refID, refType := strings.TrimSpace(in.ReferenceID), strings.ToUpper(strings.TrimSpace(in.ReferenceType))
	if refID == "" || refType == "" {
		return Movement{}, ErrMissingRef
	}
	return Movement{
		ItemID:        in.ItemID,
		Type:          in.Type,
		Qty:           in.Qty,
		UnitCost:      in.UnitCost,
		ReferenceID:   refID,
		ReferenceType: refType,
		Note:          in.Note,
		CreatedBy:     in.ActorID,
	}, nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrNegativeStock) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidUnitCost) ||
		errors.Is(err, ErrInvalidMovement)
}
