package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug           = "debug"
	ConfigBeamWidth       = "beam-width"
	ConfigBeamDepth       = "beam-depth"
	ConfigGarbageCap      = "garbage-cap"
	ConfigWeightsPath     = "weights-path"
	ConfigONNXModelPath   = "onnx-model-path"
	ConfigNatsURL         = "nats-url"
	ConfigNatsSubject     = "nats-subject"
	ConfigSearchDedup     = "search-dedup"
	ConfigThreads         = "threads"
	ConfigTrainAgents     = "train-agents"
	ConfigTrainOpponents  = "train-opponents"
	ConfigTrainIterations = "train-iterations"
	ConfigTrainMaxMoves   = "train-max-moves"
	ConfigTrainDBPath     = "train-db-path"
	ConfigTrainMethod     = "train-method"
	ConfigTrainMutants    = "train-mutants"
	ConfigTrainFresh      = "train-fresh"
	ConfigCPUProfile      = "cpu-profile"
	ConfigFile            = "config"
)

// Config layers command-line flags over TETRIZZ_ environment variables over
// an optional YAML file over built-in defaults.
type Config struct {
	*viper.Viper
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigBeamWidth, 3000)
	v.SetDefault(ConfigBeamDepth, 6)
	v.SetDefault(ConfigGarbageCap, 8)
	v.SetDefault(ConfigWeightsPath, "")
	v.SetDefault(ConfigONNXModelPath, "")
	v.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	v.SetDefault(ConfigNatsSubject, "tetrizz.bot")
	v.SetDefault(ConfigSearchDedup, false)
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigTrainAgents, 20)
	v.SetDefault(ConfigTrainOpponents, 20)
	v.SetDefault(ConfigTrainIterations, 1000)
	v.SetDefault(ConfigTrainMaxMoves, 200)
	v.SetDefault(ConfigTrainDBPath, "tetrizz-train.db")
	v.SetDefault(ConfigTrainMethod, "spsa")
	v.SetDefault(ConfigTrainMutants, 6)
	v.SetDefault(ConfigTrainFresh, 17)
	v.SetDefault(ConfigCPUProfile, "")
}

// DefaultConfig has only the built-in defaults. Tests use it.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{Viper: v}
}

func flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigBeamWidth, 3000, "nodes kept per search ply")
	fs.Int(ConfigBeamDepth, 6, "search plies")
	fs.Int(ConfigGarbageCap, 8, "garbage rows received per placement")
	fs.String(ConfigWeightsPath, "", "YAML evaluator weight file")
	fs.String(ConfigONNXModelPath, "", "ONNX evaluator model")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server for the bot")
	fs.String(ConfigNatsSubject, "tetrizz.bot", "NATS subject the bot answers on")
	fs.Bool(ConfigSearchDedup, false, "drop duplicate states within a search ply")
	fs.Int(ConfigThreads, runtime.NumCPU(), "worker goroutines for self-play and training")
	fs.Int(ConfigTrainAgents, 20, "training population size")
	fs.Int(ConfigTrainOpponents, 20, "opponents sampled per agent evaluation")
	fs.Int(ConfigTrainIterations, 1000, "training generations")
	fs.Int(ConfigTrainMaxMoves, 200, "move budget per training battle")
	fs.String(ConfigTrainDBPath, "tetrizz-train.db", "sqlite file for training history")
	fs.String(ConfigTrainMethod, "spsa", "training method: spsa (feature weights) or genetic (minimal weights)")
	fs.Int(ConfigTrainMutants, 6, "mutants bred per genetic generation")
	fs.Int(ConfigTrainFresh, 17, "random newcomers per genetic generation")
	fs.String(ConfigCPUProfile, "", "write a CPU profile here")
	fs.String(ConfigFile, "", "YAML config file")
	return fs
}

// Load parses args and resolves every key.
func (c *Config) Load(args []string) error {
	v := viper.New()
	setDefaults(v)

	fs := flagSet("tetrizz")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	v.SetEnvPrefix("tetrizz")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(ConfigFile); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("tetrizz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	c.Viper = v
	c.args = fs.Args()
	return nil
}

// Args returns the positional arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.args
}
