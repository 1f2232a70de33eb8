package ar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// PaymentReceivedEvent is handed to ledger integration after a payment commits.
type PaymentReceivedEvent struct {
	PaymentID     int64
	PaymentNumber string
	InvoiceID     int64
	InvoiceNumber string
	CustomerID    int64
	Amount        float64
	PaidAt        time.Time
}

// IntegrationHandler posts customer receipts to the ledger.
type IntegrationHandler interface {
	HandlePaymentReceived(ctx context.Context, evt PaymentReceivedEvent) error
}

// PaymentInput records a customer payment against one invoice.
type PaymentInput struct {
	InvoiceID int64
	Number    string
	Amount    float64
	PaidAt    time.Time
	Method    string
}

// Service handles AR business logic.
type Service struct {
	repo        RepositoryPort
	integration IntegrationHandler
	retry       db.RetryPolicy
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, integration IntegrationHandler, retry db.RetryPolicy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, integration: integration, retry: retry, logger: logger, now: time.Now}
}

// Aging buckets receivables outstanding at asAt. A zero asAt means today.
func (s *Service) Aging(ctx context.Context, asAt time.Time, groupBy GroupBy) (AgingResult, error) {
	if asAt.IsZero() {
		asAt = s.now()
	}
	invoices, err := s.repo.ListInvoices(ctx, day(asAt))
	if err != nil {
		return AgingResult{}, shared.Infra("ar: list invoices", err)
	}
	result := Bucketize(invoices, asAt, groupBy)
	s.logger.Debug("ar aging computed",
		slog.String("as_at", result.AsAt.Format("2006-01-02")),
		slog.Int("rows", len(result.Rows)),
		slog.Float64("total", result.Total.Total))
	return result, nil
}

// RecordPayment stores a payment that does not exceed the current balance
// and marks the invoice PAID once nothing is owed.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (Payment, error) {
	if input.InvoiceID <= 0 {
		return Payment{}, shared.Invalid(errors.New("ar: invoice id required"))
	}
	if input.Amount <= 0 {
		return Payment{}, shared.Invalid(ErrInvalidPayment)
	}
	number := strings.TrimSpace(input.Number)
	if number == "" {
		return Payment{}, shared.Invalid(errors.New("ar: payment number required"))
	}
	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	payment := Payment{InvoiceID: input.InvoiceID, Number: number, Amount: shared.Round2(input.Amount), PaidAt: day(paidAt), Method: input.Method}

	var (
		invoice Invoice
		stored  Payment
	)
	err := db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			invoice, err = tx.LockInvoice(ctx, input.InvoiceID)
			if err != nil {
				return err
			}
			if !invoice.Ageable() || invoice.Status == StatusPaid {
				return fmt.Errorf("%w: %s is %s", ErrInvoiceNotOpen, invoice.Number, invoice.Status)
			}
			owed := invoice.Outstanding(farFuture)
			if payment.Amount-owed > shared.BalanceTolerance {
				return fmt.Errorf("%w: %.2f > %.2f", ErrOverpayment, payment.Amount, owed)
			}
			stored, err = tx.InsertPayment(ctx, payment)
			if err != nil {
				return err
			}
			if owed-stored.Amount <= shared.BalanceTolerance {
				return tx.SetStatus(ctx, invoice.ID, StatusPaid)
			}
			return nil
		})
	})
	if err != nil {
		if isRejection(err) {
			return Payment{}, shared.Invalid(err)
		}
		return Payment{}, shared.Infra("ar: record payment", err)
	}
	payment = stored

	s.logger.Info("ar payment recorded",
		slog.String("invoice", invoice.Number),
		slog.String("payment", payment.Number),
		slog.Float64("amount", payment.Amount))
	if s.integration != nil {
		err := s.integration.HandlePaymentReceived(ctx, PaymentReceivedEvent{
			PaymentID:     payment.ID,
			PaymentNumber: payment.Number,
			InvoiceID:     invoice.ID,
			InvoiceNumber: invoice.Number,
			CustomerID:    invoice.CustomerID,
			Amount:        payment.Amount,
			PaidAt:        payment.PaidAt,
		})
		if err != nil {
			return payment, fmt.Errorf("ar: integration: %w", err)
		}
	}
	return payment, nil
}

// farFuture counts every recorded settlement regardless of date.
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

func isRejection(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrInvoiceNotOpen) ||
		errors.Is(err, ErrDuplicatePayment)
}
