package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"tntt-backend/lib/configutil"
	configlibsql "tntt-backend/lib/configutil/libsql"
	"tntt-backend/services/sectorstats/store"

	"github.com/spf13/cobra"
)

type Config struct {
	Database configlibsql.Struct `json:"database"`
	// academic-year length in weeks; 0 leaves weekly scores undefined
	TotalWeeks int `json:"total_weeks"`
}

var configPath string
var config Config

var rootCmd = &cobra.Command{
	Use:   "tntt-report",
	Short: "tntt-report renders attendance and catechism scoring reports.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "config.json5", "path to the config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() store.Store {
	var err error
	config, err = configutil.ReadConfig[Config](configPath)
	if err != nil {
		fatal("failed to read config", err)
	}
	db, err := config.Database.OpenDB(store.Schema)
	if err != nil {
		fatal("failed to open database", err)
	}
	return store.NewStore(db)
}

func fatal(message string, err error) {
	slog.Error(message, "err", err)
	os.Exit(1)
}
