package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/ar"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

// Mapping keys resolved per posting.
const (
	KeyInventory      = "inventory.asset"
	KeyPayable        = "inventory.purchase.payable"
	KeyCOGS           = "inventory.cogs"
	KeyAdjustmentGain = "inventory.adjustment.gain"
	KeyAdjustmentLoss = "inventory.adjustment.loss"
	KeyReceiptCash    = "ar.receipt.cash"
	KeyReceiptAR      = "ar.receipt.receivable"
	KeyPaymentCash    = "ap.payment.cash"
	KeyPaymentPayable = "ap.payment.payable"
)

var sourceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("odyssey-ledger/integration"))

// Ledger exposes journal posting operations required by integrations.
type Ledger interface {
	CreateEntry(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
}

// AccountMappingRepository provides mapping lookups.
type AccountMappingRepository interface {
	Get(ctx context.Context, module, key string) (mappings.AccountMapping, error)
}

// SupplierPaymentEvent settles a supplier balance in cash.
type SupplierPaymentEvent struct {
	Number     string
	SupplierID int64
	Amount     float64
	PaidAt     time.Time
}

// Hooks wires domain events from operational modules into the general ledger.
type Hooks struct {
	ledger   Ledger
	mappings AccountMappingRepository
	logger   *slog.Logger
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, mappings AccountMappingRepository, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{ledger: ledger, mappings: mappings, logger: logger}
}

// SourceID derives the idempotency key of an event.
func SourceID(module, key string) uuid.UUID {
	return uuid.NewSHA1(sourceNamespace, []byte(module+":"+key))
}

// HandleMovementApplied posts the valued side of a stock movement.
func (h *Hooks) HandleMovementApplied(ctx context.Context, evt inventory.MovementAppliedEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	amount := shared.Round2(abs(evt.Value))
	if amount == 0 {
		return nil
	}
	var (
		kind          journals.Kind
		debit, credit string
		memo          string
	)
	switch evt.Type {
	case inventory.MovementIn:
		kind, debit, credit, memo = journals.KindPurchase, KeyInventory, KeyPayable, "Stock received"
	case inventory.MovementOut:
		kind, debit, credit, memo = journals.KindCOGS, KeyCOGS, KeyInventory, "Cost of goods sold"
	case inventory.MovementReturnIn:
		kind, debit, credit, memo = journals.KindCOGS, KeyInventory, KeyCOGS, "Customer return"
	case inventory.MovementReturnOut:
		kind, debit, credit, memo = journals.KindPurchase, KeyPayable, KeyInventory, "Return to supplier"
	case inventory.MovementAdjIn:
		kind, debit, credit, memo = journals.KindAdjustment, KeyInventory, KeyAdjustmentGain, "Stock adjustment gain"
	case inventory.MovementAdjOut:
		kind, debit, credit, memo = journals.KindAdjustment, KeyAdjustmentLoss, KeyInventory, "Stock adjustment loss"
	default:
		return fmt.Errorf("integration: unsupported movement type %q", evt.Type)
	}
	lines, err := h.pair(ctx, mappings.ModuleInventory, debit, credit, amount, memo)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("movement:%d", evt.MovementID)
	return h.post(ctx, journals.PostingInput{
		Kind:           kind,
		DocumentNumber: fmt.Sprintf("MV%d", evt.MovementID),
		Date:           orNow(evt.PostedAt),
		Description:    strings.TrimSpace(fmt.Sprintf("%s %s %s", memo, evt.ReferenceType, evt.ReferenceID)),
		SourceModule:   mappings.ModuleInventory,
		SourceID:       SourceID(mappings.ModuleInventory, key),
		Lines:          lines,
	})
}

// HandlePaymentReceived moves a customer receipt from receivables to cash.
func (h *Hooks) HandlePaymentReceived(ctx context.Context, evt ar.PaymentReceivedEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	amount := shared.Round2(evt.Amount)
	if amount <= 0 {
		return nil
	}
	lines, err := h.pair(ctx, mappings.ModuleAR, KeyReceiptCash, KeyReceiptAR, amount, "Receipt "+evt.InvoiceNumber)
	if err != nil {
		return err
	}
	return h.post(ctx, journals.PostingInput{
		Kind:           journals.KindReceipt,
		DocumentNumber: evt.PaymentNumber,
		Date:           orNow(evt.PaidAt),
		Description:    fmt.Sprintf("Payment %s for invoice %s", evt.PaymentNumber, evt.InvoiceNumber),
		SourceModule:   mappings.ModuleAR,
		SourceID:       SourceID(mappings.ModuleAR, fmt.Sprintf("payment:%d", evt.PaymentID)),
		Lines:          lines,
	})
}

// HandleSupplierPayment settles accounts payable from cash.
func (h *Hooks) HandleSupplierPayment(ctx context.Context, evt SupplierPaymentEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.Number == "" {
		return shared.Invalid(errors.New("integration: supplier payment number required"))
	}
	amount := shared.Round2(evt.Amount)
	if amount <= 0 {
		return shared.Invalid(errors.New("integration: supplier payment amount must be positive"))
	}
	lines, err := h.pair(ctx, mappings.ModuleAP, KeyPaymentPayable, KeyPaymentCash, amount, "Supplier payment "+evt.Number)
	if err != nil {
		return err
	}
	return h.post(ctx, journals.PostingInput{
		Kind:           journals.KindPayment,
		DocumentNumber: evt.Number,
		Date:           orNow(evt.PaidAt),
		Description:    fmt.Sprintf("Payment %s to supplier %d", evt.Number, evt.SupplierID),
		SourceModule:   mappings.ModuleAP,
		SourceID:       SourceID(mappings.ModuleAP, "payment:"+evt.Number),
		Lines:          lines,
	})
}

func (h *Hooks) pair(ctx context.Context, module, debitKey, creditKey string, amount float64, memo string) ([]journals.PostingLineInput, error) {
	debit, err := h.resolveAccount(ctx, module, debitKey)
	if err != nil {
		return nil, err
	}
	credit, err := h.resolveAccount(ctx, module, creditKey)
	if err != nil {
		return nil, err
	}
	return []journals.PostingLineInput{
		{AccountID: debit, Debit: amount, Memo: memo},
		{AccountID: credit, Credit: amount, Memo: memo},
	}, nil
}

func (h *Hooks) resolveAccount(ctx context.Context, module, key string) (int64, error) {
	if h.mappings == nil {
		return 0, shared.Invalid(fmt.Errorf("%w: %s/%s", shared.ErrMappingNotFound, module, key))
	}
	mapping, err := h.mappings.Get(ctx, module, key)
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}

// post treats an existing link or entry number as already posted.
func (h *Hooks) post(ctx context.Context, input journals.PostingInput) error {
	entry, err := h.ledger.CreateEntry(ctx, input)
	switch {
	case err == nil:
		h.logger.Debug("integration posted", slog.String("reference", entry.Reference), slog.String("source", input.SourceModule))
		return nil
	case errors.Is(err, shared.ErrSourceAlreadyLinked), errors.Is(err, shared.ErrDuplicateEntry):
		h.logger.Debug("integration already posted", slog.String("document", input.DocumentNumber), slog.String("source", input.SourceModule))
		return nil
	default:
		return fmt.Errorf("integration: post %s %s: %w", input.Kind, input.DocumentNumber, err)
	}
}

var (
	_ inventory.IntegrationHandler = (*Hooks)(nil)
	_ ar.IntegrationHandler        = (*Hooks)(nil)
)
