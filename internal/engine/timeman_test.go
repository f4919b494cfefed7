package engine

import (
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

func TestTimeManagerInit(t *testing.T) {
	tests := []struct {
		name     string
		limits   Limits
		ply      int
		limited  bool
		optimum  time.Duration
		maximum  time.Duration
	}{
		{"move time", Limits{MoveTime: 300 * time.Millisecond}, 0, true, 300 * time.Millisecond, 300 * time.Millisecond},
		{"infinite", Limits{Infinite: true}, 0, false, 0, 0},
		{"depth only", Limits{Depth: 6}, 0, false, 0, 0},
		{"nodes only", Limits{Nodes: 1000}, 0, false, 0, 0},
		{"fallback", Limits{}, 0, true, time.Second, time.Second},
		{"sudden death", Limits{Time: [2]time.Duration{90 * time.Second, time.Minute}}, 20, true,
			2 * time.Second, 10 * time.Second},
		{"increment", Limits{Time: [2]time.Duration{45 * time.Second}, Inc: [2]time.Duration{time.Second}}, 20, true,
			time.Second + 900*time.Millisecond, 5*(time.Second+900*time.Millisecond)},
		{"moves to go", Limits{Time: [2]time.Duration{10 * time.Second}, MovesToGo: 5}, 40, true,
			2 * time.Second, 8 * time.Second},
		{"opening", Limits{Time: [2]time.Duration{60 * time.Second}}, 0, true,
			1020 * time.Millisecond, 5100 * time.Millisecond},
		{"nearly flagged", Limits{Time: [2]time.Duration{20 * time.Millisecond}}, 40, true,
			10 * time.Millisecond, 50 * time.Millisecond},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tm TimeManager
			tm.Init(tc.limits, board.White, tc.ply, time.Second)
			if tm.Limited() != tc.limited {
				t.Fatalf("Limited() = %v, want %v", tm.Limited(), tc.limited)
			}
			if !tc.limited {
				return
			}
			if tm.OptimumTime() != tc.optimum || tm.MaximumTime() != tc.maximum {
				t.Errorf("budget = (%v, %v), want (%v, %v)",
					tm.OptimumTime(), tm.MaximumTime(), tc.optimum, tc.maximum)
			}
		})
	}
}

func TestTimeManagerAdjust(t *testing.T) {
	var tm TimeManager
	tm.Init(Limits{Time: [2]time.Duration{90 * time.Second}}, board.White, 20, 0)
	base := tm.OptimumTime()

	tm.Adjust(6, 0)
	if got := tm.OptimumTime(); got != base*40/100 {
		t.Errorf("stable optimum = %v, want %v", got, base*40/100)
	}
	tm.Adjust(0, 4)
	if got := tm.OptimumTime(); got != base*2 {
		t.Errorf("unstable optimum = %v, want %v", got, base*2)
	}
	tm.Adjust(0, 0)
	if got := tm.OptimumTime(); got != base {
		t.Errorf("optimum = %v, want %v", got, base)
	}

	tm.Init(Limits{MoveTime: time.Second}, board.White, 20, 0)
	tm.Adjust(6, 0)
	if got := tm.OptimumTime(); got != time.Second {
		t.Errorf("fixed move time rescaled to %v", got)
	}
}

func TestTimeManagerPastOptimum(t *testing.T) {
	var tm TimeManager
	tm.Init(Limits{Infinite: true}, board.White, 0, 0)
	if tm.PastOptimum() {
		t.Error("infinite search past optimum")
	}
	tm.Init(Limits{MoveTime: time.Millisecond}, board.White, 0, 0)
	time.Sleep(2 * time.Millisecond)
	if !tm.PastOptimum() {
		t.Error("fixed move time not past optimum after it elapsed")
	}
}
