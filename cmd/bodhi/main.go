package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/navana-tech/bodhi-go/internal/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

var flags rootFlags

var rootCmd = &cobra.Command{
	Use:           "bodhi",
	Short:         "Transcribe speech with the Bodhi streaming API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/bodhi/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log SDK activity to stderr")

	rootCmd.AddCommand(
		transcribeCmd(),
		configCmd(),
	)
}

// logger returns nil when not verbose so the SDK keeps its default logger.
func logger() *slog.Logger {
	if !flags.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the CLI configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the default config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Load and validate the configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, styleSuccess.Render("Configuration OK"))
				fmt.Fprintf(out, "%s %s\n", styleLabel.Render("url:  "), cfg.Connection.URL)
				fmt.Fprintf(out, "%s %s\n", styleLabel.Render("model:"), cfg.Transcription.Model)
				return nil
			},
		},
	)
	return cmd
}
