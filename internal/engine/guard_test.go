package engine

import (
	"errors"
	"testing"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

func TestValidateConstantProduct(t *testing.T) {
	cached := fixedpoint.FromUint64(3_000_000)

	tests := []struct {
		name        string
		base, quote uint64
		wantErr     bool
	}{
		{name: "exact", base: 6_000_000, quote: 1_500_000},
		{name: "one unit of rounding drift", base: 6_000_100, quote: 1_499_975},
		{name: "inside tolerance", base: 6_000_000, quote: 1_500_010},
		{name: "reserves drifted", base: 6_000_000, quote: 1_600_000, wantErr: true},
		{name: "reserves drained", base: 1, quote: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConstantProduct(cached, tt.base, tt.quote)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConstantProduct(%d, %d) = %v, wantErr=%v",
					tt.base, tt.quote, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrConstantProductToleranceExceeded) {
				t.Errorf("got %v, want ErrConstantProductToleranceExceeded", err)
			}
		})
	}
}

func TestValidateRatio(t *testing.T) {
	cached := fixedpoint.FromUint64(2) // reserves at 4:1

	tests := []struct {
		name        string
		base, quote uint64
		wantErr     bool
	}{
		{name: "exact", base: 4_000_000, quote: 1_000_000},
		{name: "scaled up", base: 8_000_000, quote: 2_000_000},
		{name: "dust drift", base: 4_000_003, quote: 1_000_000},
		{name: "lopsided", base: 4_000_000, quote: 1_100_000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRatio(cached, tt.base, tt.quote)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRatio(%d, %d) = %v, wantErr=%v", tt.base, tt.quote, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrLiquidityRatioToleranceExceeded) {
				t.Errorf("got %v, want ErrLiquidityRatioToleranceExceeded", err)
			}
		})
	}
}

// The tolerance is relative, so the same absolute drift that passes on a
// deep pool must fail on a shallow one.
func TestToleranceScalesWithPoolDepth(t *testing.T) {
	drift := uint64(50)

	deep := fixedpoint.FromUint64(10_000_000)
	if err := ValidateConstantProduct(deep, 10_000_000+2*drift, 10_000_000); err != nil {
		t.Errorf("deep pool rejected %d units of drift: %v", drift, err)
	}

	shallow := fixedpoint.FromUint64(200_000)
	if err := ValidateConstantProduct(shallow, 200_000+2*drift, 200_000); err == nil {
		t.Errorf("shallow pool accepted %d units of drift", drift)
	}
}
