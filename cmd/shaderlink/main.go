// Command shaderlink links compiled shader modules into programs and
// inspects the results.
//
// Usage:
//
//	shaderlink link [flags] <module.json>...
//	shaderlink inspect <program.json>
//	shaderlink catalog check <catalog.yaml>...
//	shaderlink catalog list [--preset vertex|fragment|ray] [catalog.yaml]
//
// Flags may also be set with SHADERLINK_* environment variables or a config
// file (--config, default ~/.shaderlink.yaml).
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// logger is configured from the global flags before any command runs.
var logger = zerolog.Nop()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shaderlink",
		Short:         "Link and inspect shader programs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := readConfig(); err != nil {
				return err
			}
			processGlobalFlags()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ~/.shaderlink.yaml)")
	flags.BoolP("verbose", "v", false, "log debug output")
	flags.Bool("no-color", false, "disable colored output")

	root.AddCommand(newLinkCmd(), newInspectCmd(), newCatalogCmd())
	return root
}

func readConfig() error {
	viper.SetEnvPrefix("shaderlink")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		viper.SetConfigFile(expanded)
		return viper.ReadInConfig()
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".shaderlink")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// processGlobalFlags applies the global flags to the environment.
func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fatal(err)
	}
}
