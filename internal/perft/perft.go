// Package perft splits move-generation node counts across root moves, the
// usual way of locating a move generator bug.
package perft

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Split is the node count below one root move.
type Split struct {
	Move  board.Move
	Nodes uint64
}

// Result of a divide run.
type Result struct {
	Depth   int
	Splits  []Split // sorted by move string
	Nodes   uint64
	Elapsed time.Duration
}

// NPS returns nodes per second, 0 for an instant run.
func (r Result) NPS() uint64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return uint64(float64(r.Nodes) / r.Elapsed.Seconds())
}

// Divide counts the leaves below every legal root move at depth-1. Root
// moves are searched in parallel on copies of pos, at most workers at a
// time (GOMAXPROCS when workers <= 0). The context is checked between root
// moves.
func Divide(ctx context.Context, pos *board.Position, depth, workers int) (Result, error) {
	if depth < 1 {
		return Result{}, fmt.Errorf("perft depth %d: must be at least 1", depth)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	start := time.Now()

	var moves board.MoveList
	pos.GenerateLegal(&moves)
	splits := make([]Split, moves.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves.Slice() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := pos.Copy()
			child.Make(m)
			splits[i] = Split{Move: m, Nodes: child.Perft(depth - 1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("perft divide: %w", err)
	}

	sort.Slice(splits, func(i, j int) bool { return splits[i].Move.String() < splits[j].Move.String() })
	res := Result{Depth: depth, Splits: splits, Elapsed: time.Since(start)}
	for _, s := range splits {
		res.Nodes += s.Nodes
	}
	return res, nil
}

// Write prints a divide result in the conventional "move: nodes" layout
// followed by a summary line.
func Write(w io.Writer, res Result) error {
	for _, s := range res.Splits {
		if _, err := fmt.Fprintf(w, "%s: %d\n", s.Move, s.Nodes); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nNodes searched: %d (%s nodes, %s nps, %v)\n",
		res.Nodes, humanize.Comma(int64(res.Nodes)), humanize.SIWithDigits(float64(res.NPS()), 1, ""),
		res.Elapsed.Round(time.Millisecond))
	return err
}
