package main

import (
	"encoding/json"
	"fmt"
	"os"

	"concierge/internal/model"

	"github.com/spf13/cobra"
)

var migrateSeed string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the amenity and chat log tables",
	Long:  "Create amenity_detail and chat_logs if they are missing, optionally loading amenities from a JSON file.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSeed, "seed", "", "JSON file with an array of amenities to insert")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("schema applied")

	if migrateSeed == "" {
		return nil
	}

	data, err := os.ReadFile(migrateSeed)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var amenities []model.Amenity
	if err := json.Unmarshal(data, &amenities); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	for i := range amenities {
		if amenities[i].AirportCode == "" {
			amenities[i].AirportCode = a.cfg.Venue.AirportCode
		}
		if err := a.store.InsertAmenity(ctx, &amenities[i]); err != nil {
			return err
		}
	}
	a.log.Info().Int("amenities", len(amenities)).Str("file", migrateSeed).Msg("seeded amenities")
	return nil
}
