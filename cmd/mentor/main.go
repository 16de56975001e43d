// Command mentor is the lesson-planning assistant: a terminal chat, a
// full-screen TUI, an HTTP API and a Telegram bot over one gateway.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mentorbot/internal/config"
	"mentorbot/internal/gateway"
	"mentorbot/internal/logging"
	"mentorbot/internal/tui"
)

const defaultConfigPath = "~/.mentorbot/config.json"

var (
	configPath string
	verbose    bool
	learnerID  string

	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Lesson-planning assistant for facilitators",
	Long: `mentor helps facilitators find, create, schedule and edit lessons
for their learners. Planning requests are answered by a rule-driven mentor;
everything else goes to the configured language model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, ".env")
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		// full-screen commands keep the terminal to themselves
		var console io.Writer
		if cmd.Annotations["fullscreen"] == "true" {
			console = io.Discard
		}
		logger, closeLog, err = logging.New(logging.Options{
			Level:    cfg.LogLevel,
			FilePath: cfg.LogPath,
			Console:  console,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			_ = closeLog()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Line-oriented chat in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(ctx context.Context, gw *gateway.Gateway) error {
			return gw.Execute(ctx, learnerID, strings.Join(args, " "), cmd.OutOrStdout())
		})
	},
}

var tuiCmd = &cobra.Command{
	Use:         "tui",
	Short:       "Full-screen planner chat",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"fullscreen": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), tui.RunChat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file (.json, .yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	for _, c := range []*cobra.Command{rootCmd, chatCmd, askCmd} {
		c.Flags().StringVarP(&learnerID, "learner", "l", "", "learner to plan for")
	}

	rootCmd.AddCommand(chatCmd, askCmd, tuiCmd, serveCmd, telegramCmd, seedCmd, configCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	return withGateway(cmd.Context(), func(ctx context.Context, gw *gateway.Gateway) error {
		return gw.Run(ctx, learnerID, cmd.InOrStdin(), cmd.OutOrStdout())
	})
}

// withGateway builds the gateway from the loaded config, runs fn and closes
// the gateway afterwards.
func withGateway(ctx context.Context, fn func(context.Context, *gateway.Gateway) error) error {
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("close gateway", zap.Error(err))
		}
	}()
	return fn(ctx, gw)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
