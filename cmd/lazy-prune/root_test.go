package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfa-khuongdv/lazy-prune/internal/config"
	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile, keep, dryRun, continueOnError = "", 0, false, false
		for _, name := range []string{"keep", "dry-run", "continue-on-error", "config"} {
			if f := rootCmd.PersistentFlags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoot_MissingEnvironment(t *testing.T) {
	t.Setenv(config.EnvCredentialsJSON, "")
	t.Setenv(config.EnvFolderID, "")

	_, err := execute(t)
	assert.ErrorIs(t, err, retention.ErrConfiguration)
	assert.Contains(t, err.Error(), config.EnvCredentialsJSON)
}

func TestRoot_MissingFolder(t *testing.T) {
	t.Setenv(config.EnvCredentialsJSON, `{"type":"service_account"}`)
	t.Setenv(config.EnvFolderID, "")

	_, err := execute(t)
	assert.ErrorIs(t, err, retention.ErrConfiguration)
	assert.Contains(t, err.Error(), config.EnvFolderID)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv(config.EnvKeep, "3")
	t.Setenv(config.EnvDryRun, "false")

	require.NoError(t, rootCmd.ParseFlags([]string{"--keep", "10", "--dry-run"}))
	t.Cleanup(func() {
		keep, dryRun = 0, false
		rootCmd.Flags().Lookup("keep").Changed = false
		rootCmd.Flags().Lookup("dry-run").Changed = false
	})

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Keep)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.ContinueOnError)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lazy-prune "+Version)
}
