// Package manifest records what a pipeline run read and produced.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/google/uuid"
)

// FileName is the manifest file written into the reports directory.
const FileName = "manifest.json"

// Artifact kinds.
const (
	KindTable  = "table"
	KindChart  = "chart"
	KindReport = "report"
)

// Artifact is one file written by a run.
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	// Rows is the row count for tables; 0 for charts and reports.
	Rows int `json:"rows,omitempty"`
}

// Manifest describes a run persisted as JSON.
type Manifest struct {
	ID         string      `json:"id"`
	Input      string      `json:"input"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Artifacts  []Artifact  `json:"artifacts"`
	Notes      []diag.Note `json:"notes,omitempty"`
}

// New starts a manifest for a run over input.
func New(input string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Input:     input,
		StartedAt: time.Now(),
		Artifacts: []Artifact{},
	}
}

// Add records an artifact.
func (m *Manifest) Add(kind, path string, rows int) {
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: path, Rows: rows})
}

// AddNotes appends diagnostics collected by a stage.
func (m *Manifest) AddNotes(notes ...diag.Note) {
	m.Notes = append(m.Notes, notes...)
}

// Warnings counts the warn-level notes.
func (m *Manifest) Warnings() int {
	n := 0
	for _, note := range m.Notes {
		if note.Level == diag.Warn {
			n++
		}
	}
	return n
}

// Save stamps FinishedAt and writes dir/manifest.json atomically.
func (m *Manifest) Save(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	m.FinishedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads dir/manifest.json.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
