package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prontoville/crust/internal/config"
	"github.com/prontoville/crust/internal/seed"
)

var seedFilePath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the menu knowledge base into the database",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFilePath, "file", "", "Seed yaml path (overrides APP_SEED_FILE)")
}

func runSeed(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if seedFilePath != "" {
		cfg.SeedFile = seedFilePath
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required for seeding")
	}

	data, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := seed.Apply(context.Background(), cfg.DatabaseURL, data); err != nil {
		return err
	}

	log.Printf("seed complete from %s", cfg.SeedFile)
	return nil
}
