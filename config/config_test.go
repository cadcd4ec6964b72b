// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"testing"

	"github.com/mdhender/gradebook/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	fsys := afero.NewMemMapFs()

	cfg, err := config.Load(fsys, config.DefaultPath, false)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.Load(fsys, "other.yaml", true)
	assert.Error(t, err, "an explicit --config must exist")
}

func TestLoadOverridesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "gradebook.yaml", []byte(`
database:
  path: school.db
reports:
  top_n: 10
seed:
  random_seed: 42
`), 0o644))

	cfg, err := config.Load(fsys, "gradebook.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, "school.db", cfg.Database.Path)
	assert.True(t, cfg.Database.CreateIfMissing, "keys not in the file keep their defaults")
	assert.Equal(t, 10, cfg.Reports.TopN)
	assert.Equal(t, "normal", cfg.Reports.Border)
	assert.Equal(t, uint64(42), cfg.Seed.RandomSeed)
	assert.Equal(t, 50, cfg.Seed.Students)
}

func TestLoadInvalid(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"bad.yaml":    "reports: [",
		"topn.yaml":   "reports:\n  top_n: 0\n",
		"neg.yaml":    "seed:\n  students: -1\n",
		"groups.yaml": "seed:\n  groups: 101\n",
	} {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(body), 0o644))
		_, err := config.Load(fsys, name, true)
		assert.Error(t, err, name)
	}
}

func TestSaveAndLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.Reports.Border = "rounded"
	cfg.Log.Timestamp = true

	require.NoError(t, config.Save(fsys, cfg, "saved.yaml"))
	got, err := config.Load(fsys, "saved.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
