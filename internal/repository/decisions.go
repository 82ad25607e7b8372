package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradeproof/internal/models"
)

const (
	acceptSuffix = ".json"
	rejectSuffix = ".skipped"
)

// ErrInvalidKey is returned for attachment keys that are not plain
// filenames.
var ErrInvalidKey = errors.New("invalid attachment key")

// DecisionRepository is the durable source of truth for reviewer verdicts.
// Each attachment key owns an independent record: accepted metadata as
// <key>.json, rejects as an empty <key>.skipped marker. Writes go through a
// temp file and rename, so a concurrent reader never sees a partial record,
// and writers to different keys never contend.
type DecisionRepository interface {
	RecordAccept(key string, metadata json.RawMessage) error
	RecordReject(key string) error
	Status(key string) models.DecisionStatus
	Counts() (accepted, rejected int, err error)
	AcceptedTrades() ([]AcceptedTrade, error)
}

// AcceptedTrade is one accepted decision with its stored metadata.
type AcceptedTrade struct {
	Key     string
	Data    models.TradeData
	ModTime time.Time
}

type decisionRepository struct {
	dir    string
	logger *zap.Logger
}

// NewDecisionRepository opens (creating if needed) a file-backed decision
// store rooted at dir.
func NewDecisionRepository(dir string, logger *zap.Logger) (DecisionRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create decision directory: %w", err)
	}
	logger.Info("Decision repository initialized", zap.String("dir", dir))
	return &decisionRepository{dir: dir, logger: logger}, nil
}

// RecordAccept persists the metadata for key. Re-submitting the same key
// replaces the prior record (last write wins).
func (r *decisionRepository) RecordAccept(key string, metadata json.RawMessage) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(metadata) == 0 {
		metadata = json.RawMessage("null")
	}

	// Indented output keeps records diffable against hand edits.
	var buf bytes.Buffer
	if err := json.Indent(&buf, metadata, "", "  "); err != nil {
		return fmt.Errorf("metadata is not valid JSON: %w", err)
	}
	return r.writeAtomic(key+acceptSuffix, buf.Bytes())
}

// RecordReject persists an empty marker for key.
func (r *decisionRepository) RecordReject(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return r.writeAtomic(key+rejectSuffix, nil)
}

// Status reports the decision state for key. An accept record takes
// precedence should both somehow exist.
func (r *decisionRepository) Status(key string) models.DecisionStatus {
	if validateKey(key) != nil {
		return models.StatusPending
	}
	if fileExists(filepath.Join(r.dir, key+acceptSuffix)) {
		return models.StatusAccepted
	}
	if fileExists(filepath.Join(r.dir, key+rejectSuffix)) {
		return models.StatusRejected
	}
	return models.StatusPending
}

// Counts tallies accept and reject records.
func (r *decisionRepository) Counts() (int, int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read decision directory: %w", err)
	}

	accepted, rejected := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(entry.Name(), acceptSuffix):
			accepted++
		case strings.HasSuffix(entry.Name(), rejectSuffix):
			rejected++
		}
	}
	return accepted, rejected, nil
}

// AcceptedTrades loads every accept record whose metadata parses as trade
// data, ordered by modification time (review order). Records that do not
// parse are skipped with a log line, not treated as errors.
func (r *decisionRepository) AcceptedTrades() ([]AcceptedTrade, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision directory: %w", err)
	}

	var trades []AcceptedTrade
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), acceptSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read decision %s: %w", entry.Name(), err)
		}

		var trade models.TradeData
		if err := json.Unmarshal(data, &trade); err != nil {
			r.logger.Warn("Skipping accept record with unparseable metadata",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		trades = append(trades, AcceptedTrade{
			Key:     strings.TrimSuffix(entry.Name(), acceptSuffix),
			Data:    trade,
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ModTime.Before(trades[j].ModTime)
	})
	return trades, nil
}

func (r *decisionRepository) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(r.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close record: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(r.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
