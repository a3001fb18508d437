package risk

import (
	"math"
	"testing"

	"github.com/bobmcallan/horizon/internal/models"
)

func TestSizeRiskBased(t *testing.T) {
	e := NewEngine()

	// 1% capital risk, $2 risk on a $100 stock: raw size 50%, capped at 10%.
	s := e.Size(100, 2, 1_000_000, -1, models.SetupValid)
	if s.PositionSizePct != 10 {
		t.Errorf("size = %v, want 10 (position cap)", s.PositionSizePct)
	}
	if math.Abs(s.MaxCapitalAtRisk-0.2) > 1e-9 {
		t.Errorf("capital_at_risk = %v, want 0.2", s.MaxCapitalAtRisk)
	}
}

func TestSizeDegradedHalvesCap(t *testing.T) {
	e := NewEngine()

	valid := e.Size(100, 2, 1_000_000, -1, models.SetupValid)
	degraded := e.Size(100, 2, 1_000_000, -1, models.SetupDegraded)
	if degraded.PositionSizePct != valid.PositionSizePct*0.5 {
		t.Errorf("degraded size = %v, want half of %v", degraded.PositionSizePct, valid.PositionSizePct)
	}
}

func TestSizeLiquidityScaling(t *testing.T) {
	e := NewEngine()

	half := e.Size(100, 2, 250_000, -1, models.SetupValid)
	if math.Abs(half.PositionSizePct-5) > 1e-9 {
		t.Errorf("size at 250k adv = %v, want 5", half.PositionSizePct)
	}

	illiquid := e.Size(100, 2, 100_000, -1, models.SetupValid)
	if illiquid.PositionSizePct > 1.0 {
		t.Errorf("size at 100k adv = %v, want <= 1.0", illiquid.PositionSizePct)
	}
}

func TestSizeVolatilityCap(t *testing.T) {
	e := NewEngine()

	// Risk per share 8% of price trips the hard volatility cap.
	wide := e.Size(100, 8, 1_000_000, -1, models.SetupValid)
	tight := e.Size(100, 4, 1_000_000, -1, models.SetupValid)
	if wide.PositionSizePct >= tight.PositionSizePct {
		t.Errorf("volatility cap not applied: wide=%v tight=%v", wide.PositionSizePct, tight.PositionSizePct)
	}
}

func TestSizeEarningsLock(t *testing.T) {
	e := NewEngine()

	atEarnings := e.Size(100, 2, 1_000_000, 0, models.SetupValid)
	if atEarnings.PositionSizePct != 0 {
		t.Errorf("size at earnings day = %v, want 0", atEarnings.PositionSizePct)
	}

	nearEarnings := e.Size(100, 2, 1_000_000, 7, models.SetupValid)
	far := e.Size(100, 2, 1_000_000, 30, models.SetupValid)
	if math.Abs(nearEarnings.PositionSizePct-far.PositionSizePct*7/21) > 1e-9 {
		t.Errorf("earnings decay: near=%v far=%v", nearEarnings.PositionSizePct, far.PositionSizePct)
	}
}

func TestSizeInvalidInputs(t *testing.T) {
	e := NewEngine()
	if s := e.Size(0, 2, 1_000_000, -1, models.SetupValid); s.PositionSizePct != 0 {
		t.Errorf("zero price must size to zero")
	}
	if s := e.Size(100, 0, 1_000_000, -1, models.SetupValid); s.PositionSizePct != 0 {
		t.Errorf("zero risk must size to zero")
	}
}
