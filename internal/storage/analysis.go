package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Analysis is a finished search stored against its position.
type Analysis struct {
	FEN       string        `json:"fen"`
	Depth     int           `json:"depth"`
	Score     int           `json:"score"`
	BestMove  string        `json:"best_move"`
	PV        []string      `json:"pv"`
	SAN       []string      `json:"san"`
	Nodes     uint64        `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	SessionID uuid.UUID     `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewAnalysis records res, the result of searching pos.
func NewAnalysis(pos *board.Position, res engine.Result) Analysis {
	return Analysis{
		FEN:       NormalizeFEN(pos.FEN()),
		Depth:     res.Depth,
		Score:     res.Score,
		BestMove:  res.BestMove.String(),
		PV:        lo.Map(res.PV, func(m board.Move, _ int) string { return m.String() }),
		SAN:       pos.MovesToSAN(res.PV),
		Nodes:     res.Nodes,
		Elapsed:   res.Elapsed,
		SessionID: res.SessionID,
		CreatedAt: time.Now(),
	}
}

// NormalizeFEN drops the move counters, which do not change what a search
// of the position finds.
func NormalizeFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func analysisHash(fen string) uint64 {
	return xxhash.Sum64String(NormalizeFEN(fen))
}

func analysisKey(h uint64) []byte {
	key := make([]byte, len(keyAnalysisPrefix)+8)
	copy(key, keyAnalysisPrefix)
	binary.BigEndian.PutUint64(key[len(keyAnalysisPrefix):], h)
	return key
}

// SaveAnalysis stores a unless a deeper analysis of the same position is
// already present. It reports whether a was written.
func (s *Store) SaveAnalysis(a Analysis) (bool, error) {
	a.FEN = NormalizeFEN(a.FEN)
	h := analysisHash(a.FEN)
	key := analysisKey(h)

	data, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("encode analysis: %w", err)
	}

	written := false
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old Analysis
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) }); err != nil {
				return err
			}
			if old.FEN == a.FEN && old.Depth > a.Depth {
				return nil
			}
		}
		written = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("save analysis: %w", err)
	}

	if written {
		s.cache.Del(h)
		s.cache.Set(h, a, 1)
		s.log.Debug().Str("fen", a.FEN).Int("depth", a.Depth).Str("session", a.SessionID.String()).Msg("analysis-saved")
	}
	return written, nil
}

// LoadAnalysis returns the stored analysis of fen, ErrNotFound if there is
// none. Move counters in fen are ignored.
func (s *Store) LoadAnalysis(fen string) (Analysis, error) {
	fen = NormalizeFEN(fen)
	h := analysisHash(fen)
	if a, ok := s.cache.Get(h); ok && a.FEN == fen {
		return a, nil
	}

	var a Analysis
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(h))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &a) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && a.FEN != fen) {
		return Analysis{}, fmt.Errorf("analysis of %q: %w", fen, ErrNotFound)
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("load analysis: %w", err)
	}
	s.cache.Set(h, a, 1)
	return a, nil
}

// EachAnalysis calls fn for every stored analysis in key order, stopping at
// the first error.
func (s *Store) EachAnalysis(fn func(Analysis) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyAnalysisPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var a Analysis
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &a) })
			if err != nil {
				return fmt.Errorf("decode analysis %x: %w", it.Item().Key(), err)
			}
			if err := fn(a); err != nil {
				return err
			}
		}
		return nil
	})
}
