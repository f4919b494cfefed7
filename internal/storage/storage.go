package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
)

// ErrNotFound is returned when no analysis is stored for a position.
var ErrNotFound = errors.New("not found")

// Storage keys
const (
	keyPreferences    = "preferences"
	keyAnalysisPrefix = "analysis/"
)

// Preferences are the user-tunable engine settings that survive restarts.
type Preferences struct {
	HashMB              int             `json:"hash_mb"`
	MaxDepth            int             `json:"max_depth"`
	MoveTime            time.Duration   `json:"move_time"`
	NullMoveVerifyDepth int             `json:"null_move_verify_depth"`
	Features            engine.Features `json:"features"`
	SaveAnalyses        bool            `json:"save_analyses"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// DefaultPreferences mirrors engine.DefaultConfig.
func DefaultPreferences() Preferences {
	p := PreferencesFrom(engine.DefaultConfig())
	p.SaveAnalyses = true
	return p
}

// PreferencesFrom extracts the persisted subset of cfg.
func PreferencesFrom(cfg engine.Config) Preferences {
	return Preferences{
		HashMB:              cfg.HashMB,
		MaxDepth:            cfg.MaxDepth,
		MoveTime:            cfg.MoveTime,
		NullMoveVerifyDepth: cfg.NullMoveVerifyDepth,
		Features:            cfg.Features,
	}
}

// Apply copies the preferences onto cfg. Zero values keep cfg's setting.
func (p Preferences) Apply(cfg engine.Config) engine.Config {
	if p.HashMB > 0 {
		cfg.HashMB = p.HashMB
	}
	if p.MaxDepth > 0 {
		cfg.MaxDepth = p.MaxDepth
	}
	if p.MoveTime > 0 {
		cfg.MoveTime = p.MoveTime
	}
	if p.NullMoveVerifyDepth > 0 {
		cfg.NullMoveVerifyDepth = p.NullMoveVerifyDepth
	}
	cfg.Features = p.Features
	return cfg
}

// Options configure Open.
type Options struct {
	// Dir is the database directory; empty selects DatabaseDir().
	Dir string
	// InMemory keeps everything in memory and ignores Dir.
	InMemory bool
	// CacheSize bounds the number of analyses kept decoded in memory.
	CacheSize int64
	Logger    zerolog.Logger
}

// Store wraps BadgerDB for persistent storage, with a ristretto cache in
// front of analysis lookups. It is safe for concurrent use.
type Store struct {
	db    *badger.DB
	cache *ristretto.Cache[uint64, Analysis]
	log   zerolog.Logger
}

// Open opens (creating if needed) the database described by opts.
func Open(opts Options) (*Store, error) {
	log := opts.Logger.With().Str("component", "storage").Logger()

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = DatabaseDir(); err != nil {
				return nil, err
			}
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.WithLogger(badgerLogger{log: log})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	size := opts.CacheSize
	if size <= 0 {
		size = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, Analysis]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	log.Debug().Str("dir", bopts.Dir).Bool("in-memory", opts.InMemory).Msg("storage-opened")
	return &Store{db: db, cache: cache, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.cache.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// SavePreferences saves the engine preferences.
func (s *Store) SavePreferences(prefs Preferences) error {
	prefs.UpdatedAt = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads the engine preferences, returning the defaults if
// none were saved.
func (s *Store) LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prefs)
		})
	})
	if err != nil {
		return DefaultPreferences(), fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}
