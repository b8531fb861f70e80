// Package idhash computes deterministic identifiers for simulated and
// live trades. Stable IDs let a trade be journaled once and referenced
// across re-runs of the same backtest.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|strategy_id|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(symbol, strategyID string, entryTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", symbol, strategyID, entryTimeMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic run_id for a backtest run.
// Formula: SHA256(symbol|strategy_id|start_ms|end_ms), truncated to 16
// hex characters. The same window re-run produces the same ID.
func ComputeRunID(symbol, strategyID string, startMs, endMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", symbol, strategyID, startMs, endMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
