// Package uci speaks the Universal Chess Interface protocol over a line
// reader and writer, driving one engine.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/perft"
	"github.com/hailam/chesscore/internal/storage"
)

const (
	engineName   = "chesscore"
	engineAuthor = "the chesscore authors"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	store    *storage.Store // nil disables persistence
	prefs    storage.Preferences
	position *board.Position
	log      zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	// Search state
	searchDone   chan struct{}
	cancelSearch context.CancelFunc
}

// New creates a protocol handler writing to out. store may be nil.
func New(eng *engine.Engine, store *storage.Store, out io.Writer, logger zerolog.Logger) *UCI {
	u := &UCI{
		engine:   eng,
		store:    store,
		prefs:    storage.PreferencesFrom(eng.Config()),
		position: board.NewPosition(),
		out:      out,
		log:      logger.With().Str("component", "uci").Logger(),
	}
	u.prefs.SaveAnalyses = store != nil
	if store != nil {
		if prefs, err := store.LoadPreferences(); err == nil {
			u.prefs.SaveAnalyses = prefs.SaveAnalyses
		}
	}
	eng.OnInfo = u.sendInfo
	return u
}

// send writes one protocol line.
func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or the end of in. At the end of input a
// running search is allowed to finish; "quit" stops it.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		u.log.Debug().Str("cmd", line).Msg("command-received")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "eval":
			u.send("info string eval %s", engine.ScoreToString(u.engine.Evaluate(u.position)))
		case "perft":
			u.handlePerft(ctx, args)
		default:
			u.send("info string unknown command %q", cmd)
		}
	}
	u.waitSearch()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	cfg := u.engine.Config()
	u.send("id name %s", engineName)
	u.send("id author %s", engineAuthor)
	u.send("")
	u.send("option name Hash type spin default %d min 1 max 4096", cfg.HashMB)
	u.send("option name Clear Hash type button")
	u.send("option name MaxDepth type spin default %d min 1 max %d", cfg.MaxDepth, engine.MaxPly-1)
	u.send("option name MoveTime type spin default %d min 1 max 3600000", cfg.MoveTime.Milliseconds())
	u.send("option name NullMoveVerifyDepth type spin default %d min 1 max 64", cfg.NullMoveVerifyDepth)
	for _, f := range featureOptions {
		u.send("option name %s type check default %t", f.name, *f.field(&cfg.Features))
	}
	u.send("option name SaveAnalyses type check default %t", u.prefs.SaveAnalyses)
	u.send("uciok")
}

// featureOptions exposes each search feature as a check option.
var featureOptions = []struct {
	name  string
	field func(*engine.Features) *bool
}{
	{"UseHash", func(f *engine.Features) *bool { return &f.TT }},
	{"NullMove", func(f *engine.Features) *bool { return &f.NullMove }},
	{"ReverseFutility", func(f *engine.Features) *bool { return &f.ReverseFutility }},
	{"Futility", func(f *engine.Features) *bool { return &f.Futility }},
	{"LMR", func(f *engine.Features) *bool { return &f.LMR }},
	{"CheckExtension", func(f *engine.Features) *bool { return &f.CheckExtension }},
	{"Aspiration", func(f *engine.Features) *bool { return &f.Aspiration }},
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves e2e4 ...]
//
// On any error the previous position is kept.
func (u *UCI) handlePosition(args []string) {
	pos, err := parsePosition(args)
	if err != nil {
		u.log.Warn().Err(err).Strs("args", args).Msg("bad-position")
		u.send("info string %v", err)
		return
	}
	u.handleStop()
	u.position = pos
}

func parsePosition(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return nil, errors.New("position: missing arguments")
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return nil, fmt.Errorf("position: %w", err)
		}
	default:
		return nil, fmt.Errorf("position: unknown kind %q", args[0])
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				return nil, fmt.Errorf("position: %w", err)
			}
			pos.Make(m)
		}
	}
	return pos, nil
}

// parseGoLimits reads the arguments of "go". Times are in milliseconds.
func parseGoLimits(args []string) (engine.Limits, error) {
	var limits engine.Limits
	for i := 0; i < len(args); i++ {
		key := args[i]
		if key == "infinite" {
			limits.Infinite = true
			continue
		}
		if key == "ponder" {
			continue
		}
		if i+1 >= len(args) {
			return limits, fmt.Errorf("go: %s needs a value", key)
		}
		n, err := strconv.ParseInt(args[i+1], 10, 64)
		if err != nil {
			return limits, fmt.Errorf("go: %s: %w", key, err)
		}
		i++
		ms := time.Duration(max(n, 0)) * time.Millisecond
		switch key {
		case "depth":
			limits.Depth = int(n)
		case "nodes":
			limits.Nodes = uint64(max(n, 0))
		case "movetime":
			limits.MoveTime = ms
		case "wtime":
			limits.Time[board.White] = ms
		case "btime":
			limits.Time[board.Black] = ms
		case "winc":
			limits.Inc[board.White] = ms
		case "binc":
			limits.Inc[board.Black] = ms
		case "movestogo":
			limits.MovesToGo = int(n)
		default:
			return limits, fmt.Errorf("go: unknown parameter %q", key)
		}
	}
	return limits, nil
}

// handleGo starts a search in the background; "bestmove" is sent when it
// ends.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	limits, err := parseGoLimits(args)
	if err != nil {
		u.log.Warn().Err(err).Msg("bad-go")
		u.send("info string %v", err)
		return
	}
	u.handleStop()

	pos := u.position.Copy()
	done := make(chan struct{})
	// Cancelling the context reaches a search that has not started yet,
	// where Engine.Stop would be reset.
	searchCtx, cancel := context.WithCancel(ctx)
	u.searchDone, u.cancelSearch = done, cancel

	go func() {
		defer close(done)
		defer cancel()
		res := u.engine.Search(searchCtx, pos, limits)
		if res.Ponder != board.NullMove {
			u.send("bestmove %s ponder %s", res.BestMove, res.Ponder)
		} else {
			u.send("bestmove %s", res.BestMove)
		}
		u.saveAnalysis(pos, res)
	}()
}

func (u *UCI) saveAnalysis(pos *board.Position, res engine.Result) {
	if u.store == nil || !u.prefs.SaveAnalyses || res.Depth == 0 {
		return
	}
	if _, err := u.store.SaveAnalysis(storage.NewAnalysis(pos, res)); err != nil {
		u.log.Warn().Err(err).Msg("analysis-not-saved")
	}
}

func (u *UCI) sendInfo(info engine.Info) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d score %s nodes %d time %d",
		info.Depth, info.SelDepth, engine.UCIScore(info.Score), info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		fmt.Fprintf(&sb, " nps %d", uint64(float64(info.Nodes)/info.Time.Seconds()))
	}
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}
	if len(info.PV) > 0 {
		sb.WriteString(" pv ")
		sb.WriteString(engine.FormatPV(info.PV))
	}
	u.send("%s", sb.String())
}

// handleStop stops a running search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancelSearch()
	u.engine.Stop()
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

func parseSetOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

// handleSetOption changes engine settings between searches and persists
// them.
func (u *UCI) handleSetOption(args []string) {
	name, value := parseSetOption(args)
	u.handleStop()

	cfg := u.engine.Config()
	if err := u.applyOption(&cfg, name, value); err != nil {
		u.log.Warn().Err(err).Str("name", name).Str("value", value).Msg("bad-option")
		u.send("info string %v", err)
		return
	}
	u.engine.SetConfig(cfg)

	if u.store == nil {
		return
	}
	prefs := storage.PreferencesFrom(cfg)
	prefs.SaveAnalyses = u.prefs.SaveAnalyses
	u.prefs = prefs
	if err := u.store.SavePreferences(prefs); err != nil {
		u.log.Warn().Err(err).Msg("preferences-not-saved")
	}
}

func (u *UCI) applyOption(cfg *engine.Config, name, value string) error {
	spin := func(lo, hi int) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < lo || n > hi {
			return 0, fmt.Errorf("option %s: value %q out of range [%d, %d]", name, value, lo, hi)
		}
		return n, nil
	}
	check := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("option %s: %w", name, err)
		}
		return b, nil
	}

	var err error
	switch lower := strings.ToLower(name); lower {
	case "hash":
		cfg.HashMB, err = spin(1, 4096)
	case "clear hash":
		u.engine.Clear()
	case "maxdepth":
		cfg.MaxDepth, err = spin(1, engine.MaxPly-1)
	case "movetime":
		var ms int
		ms, err = spin(1, 3600000)
		cfg.MoveTime = time.Duration(ms) * time.Millisecond
	case "nullmoveverifydepth":
		cfg.NullMoveVerifyDepth, err = spin(1, 64)
	case "saveanalyses":
		var on bool
		if on, err = check(); err == nil {
			u.prefs.SaveAnalyses = on
		}
	default:
		for _, f := range featureOptions {
			if strings.ToLower(f.name) == lower {
				*f.field(&cfg.Features), err = check()
				return err
			}
		}
		return fmt.Errorf("unknown option %q", name)
	}
	return err
}

// handleDisplay prints the board and any stored analysis of it.
func (u *UCI) handleDisplay() {
	u.send("%s", strings.TrimRight(u.position.String(), "\n"))
	if u.store == nil {
		return
	}
	a, err := u.store.LoadAnalysis(u.position.FEN())
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		u.log.Warn().Err(err).Msg("analysis-lookup-failed")
	default:
		u.send("Stored: depth %d score %s pv %s", a.Depth, engine.UCIScore(a.Score), strings.Join(a.SAN, " "))
	}
}

func (u *UCI) handlePerft(ctx context.Context, args []string) {
	depth := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			depth = n
		}
	}
	res, err := perft.Divide(ctx, u.position, depth, 0)
	if err != nil {
		u.send("info string %v", err)
		return
	}
	u.outMu.Lock()
	defer u.outMu.Unlock()
	if err := perft.Write(u.out, res); err != nil {
		u.log.Warn().Err(err).Msg("perft-output-failed")
	}
}
