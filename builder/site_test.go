package builder

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applanding/config"
)

func TestBuildRunsInSiteDir(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	cfg := config.Default()
	cfg.Site.Dir = t.TempDir()
	cfg.Build.Command = []string{"sh", "-c", "touch built"}

	require.NoError(t, NewSiteBuilder(cfg).Build(context.Background()))

	_, err := os.Stat(filepath.Join(cfg.Site.Dir, "built"))
	assert.NoError(t, err)
}

func TestBuildFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	cfg := config.Default()
	cfg.Site.Dir = t.TempDir()
	cfg.Build.Command = []string{"sh", "-c", "echo boom; exit 3"}

	assert.Error(t, NewSiteBuilder(cfg).Build(context.Background()))
}

func TestBuildEmptyCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Build.Command = nil

	assert.Error(t, NewSiteBuilder(cfg).Build(context.Background()))
}
