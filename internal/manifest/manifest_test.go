package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	m := manifest.New("data/raw/sales.csv")
	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)

	m.Add(manifest.KindTable, "data/processed/top.csv", 10)
	m.Add(manifest.KindChart, "reports/plots/top.png", 0)
	m.AddNotes(
		diag.Note{Stage: "preprocess", Column: "Date", Level: diag.Warn, Count: 2, Message: "2 dates could not be parsed"},
		diag.Note{Stage: "geography", Level: diag.Info, Count: 1, Message: "1 rows assigned the default region"},
	)
	require.Equal(t, 1, m.Warnings())

	path, err := m.Save(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, manifest.FileName), path)
	require.False(t, m.FinishedAt.IsZero())

	got, err := manifest.Load(dir)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, m.Input, got.Input)
	require.Equal(t, m.Artifacts, got.Artifacts)
	require.Equal(t, m.Notes, got.Notes)
	require.True(t, m.StartedAt.Equal(got.StartedAt))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := manifest.Load(dir)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("{"), 0o644))
	_, err = manifest.Load(dir)
	require.ErrorContains(t, err, "parse manifest")
}

func TestSaveRequiresDir(t *testing.T) {
	_, err := manifest.New("x.csv").Save("")
	require.Error(t, err)
}

func TestIDsAreUnique(t *testing.T) {
	require.NotEqual(t, manifest.New("a").ID, manifest.New("a").ID)
}
