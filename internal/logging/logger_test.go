package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToConfiguredDirectory(t *testing.T) {
	root := t.TempDir()
	rot := Rotation{Directory: "applogs", MaxSize: 1, MaxBackups: 1, MaxAge: 1}

	log, err := Init(root, rot)
	require.NoError(t, err)

	log.Info("logger wired")
	_ = log.Sync() // stdout sync can fail on some platforms; the file core matters here

	entries, err := os.ReadDir(filepath.Join(root, "applogs"))
	require.NoError(t, err, "the configured directory must be created")

	var infoFile string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "-info.log") {
			infoFile = e.Name()
		}
	}
	require.NotEmpty(t, infoFile, "info entries go to a per-level file in the configured directory")

	data, err := os.ReadFile(filepath.Join(root, "applogs", infoFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logger wired")
}

func TestInitEmptyDirectoryFallsBack(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, Rotation{MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, DefaultRotation.Directory))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
