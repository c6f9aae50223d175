// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tillsync/internal/adapters/config"
	_ "go.trai.ch/tillsync/internal/adapters/logger"
	_ "go.trai.ch/tillsync/internal/adapters/notify"
	_ "go.trai.ch/tillsync/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/tillsync/internal/app"
)
