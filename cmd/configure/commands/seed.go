package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/habitosecreto/habito-api/internal/config"
	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/models"
)

// catalogFile is the YAML shape of a habit catalog seed file.
type catalogFile struct {
	Habits []catalogEntry `yaml:"habits"`
}

type catalogEntry struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	ImageURL string `yaml:"image_url"`
}

// defaultCatalog seeds the curated six-habit catalog when no file is given.
var defaultCatalog = []catalogEntry{
	{Name: "Beber 2L de Água", Category: models.CategoryPhysicalHealth},
	{Name: "Exercício 30 min", Category: models.CategoryPhysicalHealth},
	{Name: "Ler 10 páginas", Category: models.CategoryMind},
	{Name: "Meditar 10 min", Category: models.CategoryMind},
	{Name: "Planejar o dia", Category: models.CategoryProductivity},
	{Name: "Comer Saudável", Category: models.CategoryPhysicalHealth},
}

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed database content",
	}
	cmd.AddCommand(newSeedHabitsCmd())
	return cmd
}

func newSeedHabitsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Seed the habit catalog",
		Long:  "Upsert the habit catalog from a YAML file, or the built-in catalog when no file is given. Existing habits are matched by name and updated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := defaultCatalog
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read catalog file: %w", err)
				}
				var parsed catalogFile
				if err := yaml.Unmarshal(data, &parsed); err != nil {
					return fmt.Errorf("parse catalog file: %w", err)
				}
				if len(parsed.Habits) == 0 {
					return fmt.Errorf("catalog file contains no habits")
				}
				entries = parsed.Habits
			}

			for i, e := range entries {
				if e.Name == "" {
					return fmt.Errorf("habit %d has no name", i+1)
				}
				switch e.Category {
				case models.CategoryPhysicalHealth, models.CategoryMind, models.CategoryProductivity:
				default:
					return fmt.Errorf("habit %q has unknown category %q", e.Name, e.Category)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			repo := database.NewHabitRepository(db)
			ctx := context.Background()
			for _, e := range entries {
				h := &models.Habit{
					Name:     e.Name,
					Category: e.Category,
					ImageURL: e.ImageURL,
				}
				if err := repo.Upsert(ctx, h); err != nil {
					return fmt.Errorf("seed habit %q: %w", e.Name, err)
				}
				fmt.Printf("  seeded: %s (%s)\n", h.Name, h.Category)
			}

			fmt.Printf("Habit catalog seeded (%d habits).\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog file (optional, defaults to the built-in catalog)")
	return cmd
}
