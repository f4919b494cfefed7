package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Export writes every stored analysis to w as zstd-compressed JSON lines and
// returns how many were written.
func (s *Store) Export(w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("create zstd encoder: %w", err)
	}

	n := 0
	je := json.NewEncoder(enc)
	err = s.EachAnalysis(func(a Analysis) error {
		n++
		return je.Encode(a)
	})
	if err != nil {
		enc.Close()
		return n, fmt.Errorf("export analyses: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("flush export: %w", err)
	}
	s.log.Info().Int("analyses", n).Msg("analyses-exported")
	return n, nil
}

// Import reads an Export stream and saves each analysis, keeping deeper
// ones already present. It returns how many records were written.
func (s *Store) Import(r io.Reader) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	n := 0
	jd := json.NewDecoder(dec)
	for {
		var a Analysis
		err := jd.Decode(&a)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("import analyses: %w", err)
		}
		written, err := s.SaveAnalysis(a)
		if err != nil {
			return n, err
		}
		if written {
			n++
		}
	}
	s.log.Info().Int("analyses", n).Msg("analyses-imported")
	return n, nil
}
