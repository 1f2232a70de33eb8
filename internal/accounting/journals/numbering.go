package journals

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Kind identifies the business event behind an entry.
type Kind string

const (
	KindPurchase   Kind = "PURCHASE"
	KindSale       Kind = "SALE"
	KindPayment    Kind = "PAYMENT"
	KindReceipt    Kind = "RECEIPT"
	KindAdjustment Kind = "ADJUSTMENT"
	KindCOGS       Kind = "COGS"
	KindPayroll    Kind = "PAYROLL"
	KindReversal   Kind = "REVERSAL"
	KindManual     Kind = "MANUAL"
)

var prefixes = map[Kind]string{
	KindPurchase:   "PUR",
	KindSale:       "SAL",
	KindPayment:    "PAY",
	KindReceipt:    "RCT",
	KindAdjustment: "ADJ",
	KindCOGS:       "COGS",
	KindPayroll:    "PRL",
	KindReversal:   "REV",
	KindManual:     "JE",
}

// Prefix returns the entry number prefix for k.
func (k Kind) Prefix() (string, bool) {
	p, ok := prefixes[k]
	return p, ok
}

// EntryNumber builds <PREFIX>-<document number>. The same inputs always
// produce the same number, so a document can be traced to its entry.
func EntryNumber(kind Kind, document string) (string, error) {
	prefix, ok := kind.Prefix()
	if !ok {
		return "", shared.Invalid(fmt.Errorf("accounting: unknown entry kind %q", kind))
	}
	doc := strings.TrimSpace(document)
	if doc == "" {
		return "", shared.Invalid(fmt.Errorf("accounting: document number required for %s entry", kind))
	}
	return prefix + "-" + doc, nil
}
