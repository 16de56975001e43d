package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mentorbot/internal/config"
	"mentorbot/internal/planner"
	"mentorbot/internal/tui"
)

var (
	seedFile    string
	forceConfig bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load learners and lessons into the database",
	Long: `seed upserts learners and lessons from a YAML catalog. Without --file
the built-in demo catalog is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := planner.DefaultCatalog()
		if seedFile != "" {
			c, err = planner.LoadCatalog(seedFile)
		}
		if err != nil {
			return err
		}

		store, err := planner.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Seed(ctx, c); err != nil {
			return err
		}
		logger.Info("catalog seeded",
			zap.String("db", cfg.DBPath),
			zap.Int("learners", len(c.Learners)),
			zap.Int("lessons", len(c.Lessons)))
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d learners and %d lessons into %s\n", len(c.Learners), len(c.Lessons), cfg.DBPath)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !forceConfig {
			if existing, err := config.Exists(configPath); err != nil {
				return err
			} else if existing {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			}
		}
		if err := cfg.SaveToFile(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var configSetupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Interactive setup wizard",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"fullscreen": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.RunSetup(cfg, configPath)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cfg
		if out.APIKey != "" {
			out.APIKey = "***"
		}
		if out.TelegramToken != "" {
			out.TelegramToken = "***"
		}
		b, err := out.Encode(".yaml")
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog of learners and lessons")
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configSetupCmd, configShowCmd)
}
