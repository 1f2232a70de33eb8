package main

import (
	"os"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
)

func main() {
	if app.InTestMode() {
		return
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
