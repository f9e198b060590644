package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "ergictl",
		Short:   "ergictl — deduplicating, content-addressed snapshot backups",
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cobra.OnInitialize(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	})

	rootCmd.AddCommand(repoCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(extractCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
