package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexsim/hexsim/board"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Load(nil))
	assert.Equal(t, DefaultBoardSize, cfg.GetInt(ConfigBoardSize))
	assert.Equal(t, DefaultSimulations, cfg.GetInt(ConfigSimulations))
	assert.Equal(t, DefaultWorkers(), cfg.GetInt(ConfigWorkers))
	assert.True(t, cfg.GetBool(ConfigInteractiveSetup))
	assert.False(t, cfg.GetBool(ConfigLocalWorkers))
	assert.Equal(t, "", cfg.GetString(ConfigRoundLog))
	side, err := cfg.HumanSide()
	require.NoError(t, err)
	assert.Equal(t, board.SideA, side)
	assert.NoError(t, cfg.Validate())
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv("HEX_SIMULATIONS", "20000")
	t.Setenv("HEX_LOCAL_WORKERS", "true")
	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--board-size", "11", "--human-side=o", "--interactive-setup=false"}))
	assert.Equal(t, 11, cfg.GetInt(ConfigBoardSize))
	assert.Equal(t, 20000, cfg.GetInt(ConfigSimulations))
	assert.True(t, cfg.GetBool(ConfigLocalWorkers))
	assert.False(t, cfg.GetBool(ConfigInteractiveSetup))
	side, err := cfg.HumanSide()
	require.NoError(t, err)
	assert.Equal(t, board.SideB, side)
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.SanitizedSettings(), ConfigBoardSize)
}

func TestUnknownFlag(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Load([]string{"--no-such-flag"}))
}

func TestValidate(t *testing.T) {
	for _, args := range [][]string{
		{"--board-size=1"},
		{"--board-size=27"},
		{"--simulations=99"},
		{"--simulations=1000001"},
		{"--workers=0"},
		{"--workers=33"},
		{"--human-side=Z"},
	} {
		cfg := &Config{}
		require.NoError(t, cfg.Load(args))
		err := cfg.Validate()
		assert.True(t, errors.Is(err, ErrInvalidSetting), "%v: %v", args, err)
	}
}
