// package scanner watches for WSOL pools scheduled to open and appends
// them to a JSON file for later inspection.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"sniper/internal/utils"
	"sniper/service/raydium"
)

// PoolRecord is one discovered token as persisted on disk.
type PoolRecord struct {
	TokenAddress string    `json:"tokenAddress"`
	OpensAt      int64     `json:"opensAt"`
	ScannedAt    time.Time `json:"scannedAt"`
}

// Service deduplicates pool updates and persists tokens whose pools
// have not opened yet.
type Service struct {
	path string
	log  *zap.Logger

	// minDiff and maxDiff bound how far in the future the open time may
	// be; a zero maxDiff means unbounded.
	minDiff time.Duration
	maxDiff time.Duration

	seen    map[string]struct{}
	records []PoolRecord

	now func() time.Time
}

// NewService creates a scanner writing to the given file. Records from
// an earlier run are loaded so restarts don't duplicate entries.
func NewService(path string, minDiff, maxDiff time.Duration, log *zap.Logger) (*Service, error) {
	s := &Service{
		path:    path,
		log:     log.Named("scanner"),
		minDiff: minDiff,
		maxDiff: maxDiff,
		seen:    make(map[string]struct{}),
		now:     time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read pool file: %v", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("failed to parse pool file %s: %v", s.path, err)
	}
	for _, r := range s.records {
		s.seen[r.TokenAddress] = struct{}{}
	}
	return nil
}

func (s *Service) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pool file: %v", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pool file: %v", err)
	}
	return nil
}

// openTimeMillis normalizes a pool open time to unix milliseconds. The
// chain stores seconds; ten-digit values are scaled up.
func openTimeMillis(openTime uint64) int64 {
	ms := int64(openTime)
	if ms < 1_000_000_000_000 {
		ms *= 1000
	}
	return ms
}

// Run consumes pool updates until the stream closes or ctx ends.
func (s *Service) Run(ctx context.Context, updates <-chan raydium.PoolUpdate) error {
	s.log.Info("logging new pools", zap.String("file", s.path))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := s.handleUpdate(u); err != nil {
				s.log.Error("failed to record pool", zap.Error(err))
			}
		}
	}
}

// handleUpdate records a pool's base token if it is new and the pool
// opens in the future, inside the configured window.
func (s *Service) handleUpdate(u raydium.PoolUpdate) error {
	token := u.State.BaseMint.String()
	if _, ok := s.seen[token]; ok {
		return nil
	}
	if u.State.PoolOpenTime == 0 {
		return nil
	}

	opensAt := openTimeMillis(u.State.PoolOpenTime)
	until := time.UnixMilli(opensAt).Sub(s.now())
	if until <= s.minDiff {
		return nil
	}
	if s.maxDiff > 0 && until > s.maxDiff {
		return nil
	}

	record := PoolRecord{
		TokenAddress: token,
		OpensAt:      opensAt,
		ScannedAt:    s.now(),
	}
	s.seen[token] = struct{}{}
	s.records = append(s.records, record)

	s.log.Info("new pool found",
		zap.String("token", token),
		zap.String("opensAt", utils.FormatTimestamp(opensAt)),
		zap.String("url", utils.SolscanTokenURL(token)),
	)
	return s.save()
}
