// Package missionstore persists a Mission as JSON on the local filesystem
// between CLI invocations, grounded on the teacher's internal/budget
// state.go StateManager pattern: one JSON file per id under a directory,
// written atomically via internal/filelock so a crash mid-write never
// leaves a corrupt mission file for a later `resume`/`status` to load.
package missionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/worldmind/orchestrator/internal/filelock"
	"github.com/worldmind/orchestrator/internal/models"
)

// DefaultDir is the directory missions are persisted under, relative to
// the current working directory, unless overridden.
const DefaultDir = ".worldmind/missions"

// Store reads and writes Mission snapshots under Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. An empty dir defaults to DefaultDir.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

// Save atomically writes mission to its id's file.
func (s *Store) Save(mission *models.Mission) error {
	if mission.ID == "" {
		return fmt.Errorf("missionstore: save requires a mission id")
	}
	data, err := json.MarshalIndent(mission, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mission %s: %w", mission.ID, err)
	}
	if err := filelock.AtomicWrite(s.path(mission.ID), data); err != nil {
		return fmt.Errorf("write mission %s: %w", mission.ID, err)
	}
	return nil
}

// Load reads the persisted Mission with the given id.
func (s *Store) Load(id string) (*models.Mission, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("load mission %s: %w", id, err)
	}
	var mission models.Mission
	if err := json.Unmarshal(data, &mission); err != nil {
		return nil, fmt.Errorf("parse mission %s: %w", id, err)
	}
	return &mission, nil
}

// List returns every persisted mission id, most recently modified first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list missions in %s: %w", s.Dir, err)
	}

	type idTime struct {
		id  string
		mod int64
	}
	var ids []idTime
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		ids = append(ids, idTime{id: strings.TrimSuffix(e.Name(), ".json"), mod: info.ModTime().UnixMilli()})
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].mod > ids[j].mod })

	out := make([]string, len(ids))
	for i, it := range ids {
		out[i] = it.id
	}
	return out, nil
}
