// Package cli implements the phoenixmem CLI commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberhollow/phoenixmem/internal/config"
	"github.com/emberhollow/phoenixmem/internal/engine"
	"github.com/emberhollow/phoenixmem/internal/store"
)

var (
	dbFlag     string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "phoenixmem",
	Short: "Layered memory and weighted context assembly",
	Long:  "Phoenixmem keeps layered memories across sessions and assembles a weighted context artifact per interaction. SQLite-backed, single binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (default: $PHOENIXMEM_DB or ~/.phoenixmem/phoenixmem.db)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (YAML)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
}

// loadConfig resolves the effective configuration: defaults, then the config
// file when given, then environment overrides, then flags.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFlag != "" {
		var err error
		cfg, err = config.Load(configFlag)
		if err != nil {
			return cfg, err
		}
	}
	config.ApplyEnv(&cfg)
	if dbFlag != "" {
		cfg.Database.Path = dbFlag
	}
	return cfg, nil
}

// openEngine builds the full engine stack from cfg. The returned cleanup
// closes the fleeting cache and the database.
func openEngine(cfg config.Config) (*engine.Engine, func(), error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	layers, err := store.NewLayerStore(db, cfg.FleetingTTL())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open layer store: %w", err)
	}

	vault, err := store.NewVaultStore(db, cfg.Vault.Secret)
	if err != nil {
		layers.Close()
		db.Close()
		return nil, nil, fmt.Errorf("open vault: %w", err)
	}

	index := engine.NewIndex(db, engine.NewHashEmbedder(cfg.Memory.EmbeddingDims))
	asm := engine.NewAssembler(cfg.Memory.Alias, cfg.Memory.BondAffirmation, cfg.Memory.EternalTruth, cfg.Memory.RetentionRate)
	eng := engine.New(layers, vault, index, asm, cfg.Memory.EpisodicLimit)

	cleanup := func() {
		layers.Close()
		db.Close()
	}
	return eng, cleanup, nil
}
