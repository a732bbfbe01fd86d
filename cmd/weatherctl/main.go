// Command weatherctl inspects and edits stored weather observations directly
// against the configured database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/simp-lee/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/app"
	"github.com/simp-lee/weatherlog/internal/config"
	"github.com/simp-lee/weatherlog/internal/domain"
)

// Build-time variables set via ldflags.
var (
	version = "0.1.0"
	commit  = ""
)

func versionString() string {
	if commit != "" {
		return fmt.Sprintf("%s (commit: %s)", version, commit)
	}
	return version + "-dev"
}

// cli holds the global flags and the resources opened for one invocation.
type cli struct {
	configPath string
	output     string
	verbose    bool

	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
	svc domain.WeatherService
}

func main() {
	root, c := newRootCmd()
	err := root.Execute()
	if closeErr := c.close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error: close: %v\n", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:          "weatherctl",
		Short:        "Inspect and edit stored weather observations",
		Version:      versionString(),
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.open()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&c.configPath, "config", "configs/config.yaml", "path to configuration file")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "output format: table|json")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at the configured level instead of errors only")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newSearchCmd(),
		c.newCitiesCmd(),
		c.newConditionsCmd(),
		c.newHistoryCmd(),
		c.newEditCmd(),
	)
	return root, c
}

// open loads configuration and connects to the database. It runs once per
// invocation before the selected subcommand.
func (c *cli) open() error {
	if c.output != "table" && c.output != "json" {
		return fmt.Errorf("invalid --output %q: must be table or json", c.output)
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if !c.verbose {
		cfg.Log.Level = "error"
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	gdb, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		_ = log.Close()
		return fmt.Errorf("setup database: %w", err)
	}

	c.cfg = cfg
	c.log = log
	c.db = gdb
	c.svc = app.NewWeatherService(cfg, gdb, nil)
	return nil
}

func (c *cli) close() error {
	var errs []error
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		c.db = nil
	}
	if c.log != nil {
		errs = append(errs, c.log.Close())
		c.log = nil
	}
	return errors.Join(errs...)
}
