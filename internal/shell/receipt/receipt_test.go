package receipt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy", "receipt.yaml")

	want := Receipt{
		RunID:             "8f2e1c4a-7b3d-4a6e-9f01-2c5d8e7a6b41",
		Target:            "bitebase-api",
		Endpoint:          "https://api.bitebase.app",
		GenerationID:      "4be5a1c0-99f7-4a0b-8f5e-0d2c8a7b6e51",
		CompatibilityDate: "2024-04-09",
		DeployedAt:        time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWrite_ReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.yaml")

	require.NoError(t, Write(path, Receipt{RunID: "first", Endpoint: "https://old.bitebase.app"}))
	require.NoError(t, Write(path, Receipt{RunID: "second", Endpoint: "https://api.bitebase.app"}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got.RunID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old.bitebase.app")
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
