package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		strategyID  string
		entryTimeMs int64
		wantLen     int // hash length should be 64
	}{
		{
			name:        "momentum trade",
			symbol:      "AAPL",
			strategyID:  "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R",
			entryTimeMs: 1704067234567,
			wantLen:     64,
		},
		{
			name:        "pullback trade",
			symbol:      "MSFT",
			strategyID:  "PULLBACK_ema20_vd0.8_atr2.0_tgt2.0R",
			entryTimeMs: 1704067300000,
			wantLen:     64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.symbol, tt.strategyID, tt.entryTimeMs)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.symbol, tt.strategyID, tt.entryTimeMs)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeRunID(t *testing.T) {
	got := ComputeRunID("AAPL", "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R", 1704067200000, 1735689600000)

	if len(got) != 16 {
		t.Errorf("ComputeRunID() length = %d, want 16", len(got))
	}

	got2 := ComputeRunID("AAPL", "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R", 1704067200000, 1735689600000)
	if got != got2 {
		t.Errorf("ComputeRunID() not deterministic: %s != %s", got, got2)
	}

	other := ComputeRunID("AAPL", "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R", 1704067200000, 1735689600001)
	if got == other {
		t.Error("Different end time should produce different run_id")
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("AAPL", "strategy", 1000)

	// Different symbol should produce different hash
	diffSymbol := ComputeTradeID("MSFT", "strategy", 1000)
	if base == diffSymbol {
		t.Error("Different symbol should produce different hash")
	}

	// Different strategy should produce different hash
	diffStrategy := ComputeTradeID("AAPL", "other_strategy", 1000)
	if base == diffStrategy {
		t.Error("Different strategy should produce different hash")
	}

	// Different entry time should produce different hash
	diffTime := ComputeTradeID("AAPL", "strategy", 2000)
	if base == diffTime {
		t.Error("Different entry time should produce different hash")
	}
}
