package accounts

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// SeedFile is the YAML layout accepted by LoadSeed.
//
//	accounts:
//	  - number: "1100"
//	    name: Bank
//	    type: current-asset
//	    sub_category: bank-cash
//	    opening_balance: 5000
type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// SeedAccount is one chart row in a seed file.
type SeedAccount struct {
	Number         string  `yaml:"number"`
	Name           string  `yaml:"name"`
	Type           string  `yaml:"type"`
	SubCategory    string  `yaml:"sub_category"`
	OpeningBalance float64 `yaml:"opening_balance"`
	Inactive       bool    `yaml:"inactive"`
}

// LoadSeed parses a YAML chart seed. Ids are not assigned; the repository
// assigns them on insert.
func LoadSeed(r io.Reader) ([]Account, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, shared.Invalid(fmt.Errorf("accounts: decode seed: %w", err))
	}
	out := make([]Account, 0, len(file.Accounts))
	seen := make(map[string]struct{}, len(file.Accounts))
	for _, row := range file.Accounts {
		acc := Account{
			Number:         row.Number,
			Name:           row.Name,
			Type:           AccountType(row.Type),
			SubCategory:    SubCategory(row.SubCategory),
			OpeningBalance: row.OpeningBalance,
			IsActive:       !row.Inactive,
		}
		if err := acc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[acc.Number]; dup {
			return nil, shared.Invalid(fmt.Errorf("%w: duplicate number %s", shared.ErrInvalidAccount, acc.Number))
		}
		seen[acc.Number] = struct{}{}
		out = append(out, acc)
	}
	return out, nil
}
