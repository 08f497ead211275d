package macwincontrol

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/frank2889/MacWinControl/internal/config"
	"github.com/frank2889/MacWinControl/internal/session"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Share this machine's input with a connecting peer",
	Long: `Listens for a peer and shares this machine's mouse and keyboard with it.
Move the cursor over the configured edge to redirect input; press
Ctrl+Alt+M or push the cursor back over the opposite edge to return.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		feed, err := startFeed(cfg)
		if err != nil {
			return fmt.Errorf("start event feed: %w", err)
		}
		if feed != nil {
			defer feed.Close()
		}

		ctx, cancel := signalContext()
		defer cancel()

		eng := newEngine(cfg, session.RoleHost, fmt.Sprintf(":%d", cfg.Port), feed)
		slog.Info("hosting", "port", cfg.Port, "edge", cfg.SwitchEdge)
		if err := runEngine(ctx, eng); err != nil && !errors.Is(err, errConnectionLost) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
}
