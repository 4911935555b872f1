package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PegSim/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pegsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	p := cfg.Params()
	assert.Equal(t, VariantPeg, cfg.Variant)
	assert.Equal(t, 100, p.TotalSteps)
	assert.Equal(t, 800000.0, p.InitialCirculation())
	assert.Equal(t, model.ProcessLogNormal, p.Process)
	assert.True(t, p.Rebase)
	assert.False(t, p.BondIssuance)
}

func TestLoad_FileOverridesPreset(t *testing.T) {
	path := writeConfig(t, `
variant: seigniorage-eth
simulation:
  total_steps: 250
  termination: stop
peg:
  minimum_reserve_ratio: 0.7
  rebase: true
output:
  print_steps: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	p := cfg.Params()
	assert.Equal(t, "ETH", p.Asset)
	assert.Equal(t, 200.0, p.InitialPrice)
	assert.True(t, p.BondIssuance)
	assert.True(t, p.Rebase, "file value wins over preset")
	assert.Equal(t, 250, p.TotalSteps)
	assert.Equal(t, 0.7, p.MinimumReserveRatio)
	assert.Equal(t, model.TerminateStop, p.Termination)
	assert.True(t, cfg.Output.PrintSteps)
	assert.Equal(t, 0.001, p.DemandDrift, "untouched keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "simulation:\n  total_steps: 10\n")
	t.Setenv("PEGSIM_VARIANT", "peg-gbm")
	t.Setenv("PEGSIM_TOTAL_STEPS", "42")
	t.Setenv("PEGSIM_TOTAL_TRIALS", "7")
	t.Setenv("PEGSIM_SEED", "18446744073709551615")
	t.Setenv("PEGSIM_SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, VariantPegGBM, cfg.Variant)
	assert.Equal(t, string(model.ProcessGBM), cfg.Simulation.Process)
	assert.Equal(t, 42, cfg.Simulation.TotalSteps)
	assert.Equal(t, 7, cfg.Simulation.TotalTrials)
	assert.Equal(t, uint64(18446744073709551615), cfg.Simulation.Seed)
	assert.Equal(t, "/tmp/x.db", cfg.Output.SQLitePath)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PEGSIM_TOTAL_STEPS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_UnknownVariant(t *testing.T) {
	_, err := Load(writeConfig(t, "variant: tulip\n"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "simulation: [1, 2\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no trials", func(c *Config) { c.Simulation.TotalTrials = 0 }},
		{"no bins", func(c *Config) { c.Output.HistogramBins = 0 }},
		{"bad cron", func(c *Config) { c.Schedule.ExperimentCron = "every tuesday" }},
		{"bad price", func(c *Config) { c.Reserve.InitialPrice = 0 }},
		{"bad ask", func(c *Config) { c.Peg.LowestAsk = 0.5 }},
		{"bad process", func(c *Config) { c.Simulation.Process = "levy" }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default(VariantPeg)
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestVariants(t *testing.T) {
	names := Variants()
	assert.Equal(t, []string{VariantPeg, VariantPegGBM, VariantSeigniorage, VariantSeigniorageETH}, names)
	for _, n := range names {
		cfg, err := Default(n)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate(), n)
		assert.NotEmpty(t, Describe(n))
	}
}

func TestLoadVariant_ForcedVariantWins(t *testing.T) {
	t.Setenv("PEGSIM_VARIANT", "peg-gbm")
	cfg, err := LoadVariant(writeConfig(t, "variant: peg\n"), VariantSeigniorage)
	require.NoError(t, err)
	assert.Equal(t, VariantSeigniorage, cfg.Variant)
	assert.True(t, cfg.Peg.BondIssuance)
}

func TestLoad_ShippedConfigKeepsVariantMechanics(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v, func(t *testing.T) {
			cfg, err := LoadVariant("../../configs/pegsim.yaml", v)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			want, err := Default(v)
			require.NoError(t, err)
			assert.Equal(t, want.Params(), cfg.Params())
			assert.Equal(t, "data/pegsim.db", cfg.Output.SQLitePath)
		})
	}
}
