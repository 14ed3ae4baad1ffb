package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigBeamWidth), 3000)
	is.Equal(cfg.GetInt(ConfigBeamDepth), 6)
	is.Equal(cfg.GetInt(ConfigGarbageCap), 8)
	is.Equal(cfg.GetString(ConfigNatsSubject), "tetrizz.bot")
	is.True(!cfg.GetBool(ConfigSearchDedup))
	is.Equal(cfg.GetString(ConfigTrainMethod), "spsa")
	is.Equal(cfg.GetInt(ConfigTrainMutants), 6)
	is.Equal(cfg.GetInt(ConfigTrainFresh), 17)
}

func TestFlagsOverrideEnvOverrideFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.yaml")
	is.NoErr(os.WriteFile(file, []byte("beam-width: 10\nbeam-depth: 2\ngarbage-cap: 4\n"), 0o644))
	t.Setenv("TETRIZZ_BEAM_DEPTH", "3")

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config", file, "--garbage-cap", "5"}))
	is.Equal(cfg.GetInt(ConfigBeamWidth), 10)
	is.Equal(cfg.GetInt(ConfigBeamDepth), 3)
	is.Equal(cfg.GetInt(ConfigGarbageCap), 5)
	is.Equal(cfg.GetInt(ConfigTrainMaxMoves), 200)
}

func TestPositionalArgs(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--beam-width", "7", "stdio", "extra"}))
	is.Equal(cfg.GetInt(ConfigBeamWidth), 7)
	is.Equal(cfg.Args(), []string{"stdio", "extra"})
}

func TestBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"--no-such-flag"}) != nil)
}

