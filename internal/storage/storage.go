package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/knltb-stats/internal/player"
)

// DefaultDataDir is used when no data directory is configured.
const DefaultDataDir = "~/.local/share/knltb-stats"

// Storage handles persistence of match snapshots and archived pages
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	for _, dir := range []string{dataDir, filepath.Join(dataDir, snapshotDir), filepath.Join(dataDir, pageDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// DataDir returns the expanded data directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

const snapshotDir = "snapshots"

// Snapshot is the set of matches known for one player, keyed by
// MatchRecord.ID.
type Snapshot struct {
	Player    int                           `json:"player"`
	Name      string                        `json:"name,omitempty"`
	Matches   map[string]player.MatchRecord `json:"matches"`
	UpdatedAt string                        `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot(number int) *Snapshot {
	return &Snapshot{
		Player:  number,
		Matches: make(map[string]player.MatchRecord),
	}
}

// CreateSnapshot creates a snapshot from a match history
func CreateSnapshot(number int, name string, records []player.MatchRecord, updatedAt string) *Snapshot {
	snap := NewSnapshot(number)
	snap.Name = name
	snap.UpdatedAt = updatedAt
	for _, rec := range records {
		snap.Matches[rec.ID()] = rec
	}
	return snap
}

func (s *Storage) snapshotPath(number int) string {
	return filepath.Join(s.dataDir, snapshotDir, fmt.Sprintf("player_%d.json", number))
}

// LoadSnapshot loads a player's snapshot from disk. A player seen for the
// first time gets an empty snapshot.
func (s *Storage) LoadSnapshot(number int) (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(number))
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return NewSnapshot(number), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Matches map is initialized
	if snapshot.Matches == nil {
		snapshot.Matches = make(map[string]player.MatchRecord)
	}
	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *Snapshot) error {
	// Set updated timestamp
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(s.snapshotPath(snapshot.Player), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
