package mappings

import "time"

// Module names used as the first half of a mapping key.
const (
	ModuleInventory = "INVENTORY"
	ModuleAR        = "AR"
	ModuleAP        = "AP"
)

// AccountMapping links integration keys to ledger accounts.
type AccountMapping struct {
	Module    string    `yaml:"module"`
	Key       string    `yaml:"key"`
	AccountID int64     `yaml:"account_id"`
	UpdatedAt time.Time `yaml:"-"`
}
