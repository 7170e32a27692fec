package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/formpath/core"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// logger is built once the verbosity is known.
var logger = zap.NewNop()

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "formpath",
	Short: "Walk a questionnaire graph and recommend the models that fit your answers.",
	Long: `Formpath asks the questions of a graph-shaped questionnaire, follows the path your
answers open, and ranks candidate models by the coefficients of the propositions you chose.

Answers are stored as forms you can list, reopen and edit later. Runs recorded in a
tracking backend can be compared on normalized metrics.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A local .env file may hold connection secrets
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Cannot read .env file", err)
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".formpath") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("FORMPATH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("graph-backend", schema.GraphSQLite)
	viper.SetDefault("tracking-backend", schema.TrackingSQLite)
	viper.SetDefault("root-question", contract.DefaultRootQuestion)
	viper.SetDefault("affirmative", schema.AffirmativeAnswer)
	viper.SetDefault("target-version", -1)
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, runs validation and opens the stores.
func sharedSetup(ctx context.Context, cmd *cobra.Command, _ []string) error {
	contract.ProcessProfilingConfig(profile, viper.GetString("profile"))
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	// Subcommands share flag names, so only the running command is bound
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Build the logger now that verbosity is known.
	built, err := contract.NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	logger = built
	rootCtx = core.WithLogger(ctx, logger)

	// 5. Initialize persistence layer with validated config
	if err := store.InitStores(rootCtx, cfg, logger); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// formArgSetup takes the form name from the first positional argument.
func formArgSetup(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("form", args[0])
	}
	return sharedSetup(rootCtx, cmd, args)
}

// runArgSetup takes the run id from the first positional argument.
func runArgSetup(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("run", args[0])
	}
	return sharedSetup(rootCtx, cmd, args)
}

// configOnlySetup validates the configuration without opening the stores.
// Migrations open their own connection.
func configOnlySetup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return contract.ProcessAndValidate(cfg, input)
}

// runExecutor adapts a core executor to Cobra.
func runExecutor(fn core.ExecutorFunc) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		return fn(rootCtx, cfg, store.Manager)
	}
}

// Execute runs the root command and releases the stores afterwards.
func Execute() error {
	err := rootCmd.Execute()
	store.CloseStores()
	_ = logger.Sync()
	if stopErr := stopProfiling(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
