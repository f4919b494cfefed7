package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Limits are the constraints of one search, in the shape of the UCI "go"
// command. The zero value means "use the configured move time".
type Limits struct {
	Time      [2]time.Duration // remaining clock per colour
	Inc       [2]time.Duration // increment per colour
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides the clock)
	Depth     int              // maximum depth (0 = configured maximum)
	Nodes     uint64           // maximum nodes (0 = no limit)
	Infinite  bool             // search until stopped
}

// TimeManager turns Limits into a soft target checked between iterations
// and a hard deadline polled inside the search.
type TimeManager struct {
	optimumTime time.Duration
	baseOptimum time.Duration
	maximumTime time.Duration
	startTime   time.Time
	limited     bool
	fixed       bool
}

// Init prepares the budget for a search by us at game ply ply. fallback is
// used when limits carry no time control, depth or node limit at all.
func (tm *TimeManager) Init(limits Limits, us board.Color, ply int, fallback time.Duration) {
	tm.startTime = time.Now()
	tm.limited = true
	tm.fixed = false

	switch {
	case limits.MoveTime > 0:
		tm.fixed = true
		tm.set(limits.MoveTime, limits.MoveTime)
		return
	case limits.Infinite:
		tm.limited = false
		return
	case limits.Time[us] == 0:
		if limits.Depth > 0 || limits.Nodes > 0 || fallback <= 0 {
			tm.limited = false
			return
		}
		tm.fixed = true
		tm.set(fallback, fallback)
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// sudden death: expect fewer moves the longer the game runs
		mtg = clamp(50-ply/4, 10, 50)
	}

	optimum := timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		optimum = optimum * 85 / 100
	}

	maximum := min(optimum*5, timeLeft*8/10, timeLeft*95/100)

	tm.set(max(optimum, 10*time.Millisecond), max(maximum, 50*time.Millisecond))
}

func (tm *TimeManager) set(optimum, maximum time.Duration) {
	tm.optimumTime = optimum
	tm.baseOptimum = optimum
	tm.maximumTime = maximum
}

// Limited reports whether the search runs against the clock at all.
func (tm *TimeManager) Limited() bool {
	return tm.limited
}

// Deadline is the hard stop for the search.
func (tm *TimeManager) Deadline() time.Time {
	return tm.startTime.Add(tm.maximumTime)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// PastOptimum reports whether starting another iteration is unlikely to pay
// off. With a fixed move time that is once half of it has been used.
func (tm *TimeManager) PastOptimum() bool {
	if !tm.limited {
		return false
	}
	if tm.fixed {
		return tm.Elapsed()*2 >= tm.optimumTime
	}
	return tm.Elapsed() >= tm.optimumTime
}

// Adjust rescales the optimum from the best move's history: stability is
// the number of consecutive iterations that kept the same best move and
// changes the number of best-move changes so far. A fixed move time is
// never rescaled.
func (tm *TimeManager) Adjust(stability, changes int) {
	if tm.fixed || !tm.limited {
		return
	}
	percent := 100
	switch {
	case changes >= 4:
		percent = 200
	case changes >= 2:
		percent = 150
	case stability >= 6:
		percent = 40
	case stability >= 4:
		percent = 60
	case stability >= 2:
		percent = 80
	}
	tm.optimumTime = min(tm.baseOptimum*time.Duration(percent)/100, tm.maximumTime)
}
