package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APPLANDING_SITE_DIR=/srv/landing\nNO_COLOR=true\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		os.Unsetenv("APPLANDING_SITE_DIR")
		os.Unsetenv("NO_COLOR")
	})

	require.NoError(t, parseArgs(nil))
	assert.Equal(t, "/srv/landing", opts.SiteDir)
	assert.True(t, opts.NoColor)

	// flags win over .env
	require.NoError(t, parseArgs([]string{"--site-dir", "/tmp/other"}))
	assert.Equal(t, "/tmp/other", opts.SiteDir)
}
