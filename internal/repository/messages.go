package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tradeproof/internal/models"
)

// MessageRepository is a read-only snapshot of the buffer log, built once at
// startup. Positions are stable for the life of the process.
type MessageRepository interface {
	All() []models.RawMessage
	Get(index int) (models.RawMessage, bool)
	Len() int
}

type messageRepository struct {
	messages []models.RawMessage
}

// NewMessageRepository wraps an already-loaded message list.
func NewMessageRepository(messages []models.RawMessage) MessageRepository {
	return &messageRepository{messages: messages}
}

func (r *messageRepository) All() []models.RawMessage {
	return r.messages
}

func (r *messageRepository) Get(index int) (models.RawMessage, bool) {
	if index < 0 || index >= len(r.messages) {
		return models.RawMessage{}, false
	}
	return r.messages[index], true
}

func (r *messageRepository) Len() int {
	return len(r.messages)
}

// LoadBuffers reads every buffer file in dir and concatenates their messages
// in numeric-stem order, so each buffer contributes a contiguous run. Files
// with non-numeric stems sort as 0. A missing directory is an empty log.
func LoadBuffers(dir string, logger *zap.Logger) ([]models.RawMessage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Buffers directory does not exist, starting with empty message log", zap.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read buffers directory: %w", err)
	}

	type bufferFile struct {
		name string
		stem int
	}
	var files []bufferFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stem, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			stem = 0
		}
		files = append(files, bufferFile{name: entry.Name(), stem: stem})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].stem < files[j].stem
	})

	var messages []models.RawMessage
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read buffer %s: %w", file.name, err)
		}

		var batch []models.RawMessage
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode buffer %s: %w", file.name, err)
		}
		messages = append(messages, batch...)

		logger.Info("Loaded message buffer",
			zap.String("file", file.name),
			zap.Int("messages", len(batch)))
	}

	return messages, nil
}
