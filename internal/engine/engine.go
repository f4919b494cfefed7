package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// Aspiration window parameters
const (
	aspirationMinDepth = 4
	aspirationDelta    = 25
)

// Features switches individual search techniques. Turning everything off
// leaves a plain alpha-beta search with quiescence.
type Features struct {
	TT              bool
	NullMove        bool
	ReverseFutility bool
	Futility        bool
	LMR             bool
	CheckExtension  bool
	Aspiration      bool
}

// AllFeatures enables every technique.
func AllFeatures() Features {
	return Features{
		TT:              true,
		NullMove:        true,
		ReverseFutility: true,
		Futility:        true,
		LMR:             true,
		CheckExtension:  true,
		Aspiration:      true,
	}
}

// Config holds the engine settings.
type Config struct {
	HashMB              int
	MaxDepth            int
	MoveTime            time.Duration // used when a search has no other limit
	NullMoveVerifyDepth int
	Features            Features
	Evaluator           Evaluator // nil selects the piece-square evaluator
	Logger              zerolog.Logger
}

// DefaultConfig returns the settings used by the command line tool.
func DefaultConfig() Config {
	return Config{
		HashMB:              64,
		MaxDepth:            32,
		MoveTime:            5 * time.Second,
		NullMoveVerifyDepth: 7,
		Features:            AllFeatures(),
		Logger:              zerolog.Nop(),
	}
}

// Info describes one completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // permille of hash table used
}

// Result is the outcome of a search. BestMove is NullMove only when the
// root has no legal move, in which case Score is the mate or draw score.
type Result struct {
	BestMove  board.Move
	Ponder    board.Move
	Score     int
	Depth     int
	Nodes     uint64
	Elapsed   time.Duration
	PV        []board.Move
	SessionID uuid.UUID
}

// Engine owns the tables that survive between searches. One search runs at
// a time; Stop may be called from any goroutine.
type Engine struct {
	cfg  Config
	tt   *TranspositionTable
	hist *History
	eval Evaluator
	stop atomic.Bool
	log  zerolog.Logger

	// OnInfo is called after every completed iteration.
	OnInfo func(Info)
}

// New creates an engine from cfg.
func New(cfg Config) *Engine {
	e := &Engine{hist: NewHistory()}
	e.SetConfig(cfg)
	return e
}

// Config returns the current settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetConfig replaces the settings, reallocating the hash table only when its
// size changes. It must not be called while a search is running.
func (e *Engine) SetConfig(cfg Config) {
	if cfg.MaxDepth <= 0 || cfg.MaxDepth >= MaxPly {
		cfg.MaxDepth = MaxPly - 1
	}
	if cfg.Evaluator == nil {
		if e.eval == nil || e.cfg.Evaluator != nil {
			e.eval = NewPSTEvaluator(1)
		}
	} else {
		e.eval = cfg.Evaluator
	}
	if e.tt == nil || cfg.HashMB != e.cfg.HashMB {
		e.tt = NewTranspositionTable(cfg.HashMB)
	}
	e.cfg = cfg
	e.log = cfg.Logger.With().Str("component", "engine").Logger()
}

// Stop stops the current search. The result of the last completed
// iteration is still returned.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear forgets everything learned in previous searches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.hist.Clear()
	if c, ok := e.eval.(interface{ Clear() }); ok {
		c.Clear()
	}
}

// Evaluate returns the static evaluation of pos from the side to move.
func (e *Engine) Evaluate(pos *board.Position) int {
	return e.eval.Evaluate(pos)
}

// HashFull returns the hash table usage in permille.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Search runs iterative deepening on a copy of pos until limits, Stop or
// ctx end it.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) Result {
	e.stop.Store(false)
	e.tt.Age()
	e.hist.Clear()

	root := pos.Copy()
	res := Result{SessionID: uuid.New()}
	log := e.log.With().Str("session", res.SessionID.String()).Logger()

	var legal board.MoveList
	root.GenerateLegal(&legal)
	if legal.Len() == 0 {
		if root.InCheck() {
			res.Score = -Checkmate
		}
		log.Info().Str("fen", root.FEN()).Int("score", res.Score).Msg("no-legal-moves")
		return res
	}
	res.BestMove = legal.Get(0)

	var tm TimeManager
	gamePly := (root.FullMoveNumber()-1)*2 + int(root.SideToMove())
	tm.Init(limits, root.SideToMove(), gamePly, e.cfg.MoveTime)

	s := &searcher{
		pos:             root,
		eval:            e.eval,
		tt:              e.tt,
		hist:            e.hist,
		features:        e.cfg.Features,
		nullVerifyDepth: e.cfg.NullMoveVerifyDepth,
		stop:            &e.stop,
		ctx:             ctx,
		nodeLimit:       limits.Nodes,
	}
	if tm.Limited() {
		s.deadline = tm.Deadline()
	}

	maxDepth := e.cfg.MaxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly-1)
	}

	log.Info().
		Str("fen", root.FEN()).
		Int("max-depth", maxDepth).
		Dur("optimum", tm.OptimumTime()).
		Dur("maximum", tm.MaximumTime()).
		Msg("search-started")

	stability, changes := 0, 0
	for depth := 1; depth <= maxDepth; depth++ {
		s.seldepth = 0
		score, ok := e.iterate(s, depth, res.Score)
		if !ok {
			log.Debug().Int("depth", depth).Msg("iteration-cancelled")
			break
		}
		pv := s.pv.Line()
		if len(pv) == 0 {
			break
		}

		if depth > 1 && pv[0] == res.BestMove {
			stability++
		} else if depth > 1 {
			stability = 0
			changes++
		}

		res.BestMove, res.Score, res.Depth, res.PV = pv[0], score, depth, pv
		res.Ponder = board.NullMove
		if len(pv) > 1 {
			res.Ponder = pv[1]
		}

		info := Info{
			Depth:    depth,
			SelDepth: s.seldepth,
			Score:    score,
			Nodes:    s.nodes,
			Time:     tm.Elapsed(),
			PV:       pv,
			HashFull: e.tt.HashFull(),
		}
		log.Debug().
			Int("depth", depth).
			Int("seldepth", info.SelDepth).
			Str("score", ScoreToString(score)).
			Uint64("nodes", info.Nodes).
			Str("pv", FormatPV(pv)).
			Msg("deepening-iteratively")
		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		if IsMateScore(score) && Checkmate-abs(score) <= depth {
			break
		}
		if tm.Limited() && legal.Len() == 1 {
			break
		}
		tm.Adjust(stability, changes)
		if tm.PastOptimum() {
			break
		}
	}

	res.Nodes = s.nodes
	res.Elapsed = tm.Elapsed()
	nps := uint64(0)
	if ms := res.Elapsed.Milliseconds(); ms > 0 {
		nps = res.Nodes * 1000 / uint64(ms)
	}
	log.Info().
		Str("move", res.BestMove.String()).
		Str("score", ScoreToString(res.Score)).
		Int("depth", res.Depth).
		Str("nodes", humanize.Comma(int64(res.Nodes))).
		Str("nps", humanize.Comma(int64(nps))).
		Dur("elapsed", res.Elapsed).
		Msg("search-finished")
	return res
}

// iterate searches one depth from the root, inside an aspiration window
// around prev from aspirationMinDepth on. It reports false when the
// iteration was cancelled.
func (e *Engine) iterate(s *searcher, depth, prev int) (int, bool) {
	if !s.features.Aspiration || depth < aspirationMinDepth {
		score := s.negamax(-Infinity, Infinity, depth, 0)
		return score, !s.stop.Load()
	}

	delta := aspirationDelta
	alpha := max(prev-delta, -Infinity)
	beta := min(prev+delta, Infinity)
	d := depth
	for {
		score := s.negamax(alpha, beta, d, 0)
		if s.stop.Load() {
			return 0, false
		}

		switch {
		case score <= alpha:
			beta = (alpha + beta) / 2
			alpha = max(score-delta, -Infinity)
			d = depth
		case score >= beta:
			beta = min(score+delta, Infinity)
			if score < mateBound {
				d = max(d-1, depth-3, 1)
			}
		default:
			return score, true
		}

		if score >= mateBound {
			beta = Infinity
		}
		if score <= -mateBound {
			alpha = -Infinity
		}
		delta += delta / 2
	}
}
