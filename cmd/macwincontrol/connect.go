package macwincontrol

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/frank2889/MacWinControl/internal/config"
	"github.com/frank2889/MacWinControl/internal/permissions"
	"github.com/frank2889/MacWinControl/internal/session"
)

const retryDelay = 3 * time.Second

var connectRetry bool

var connectCmd = &cobra.Command{
	Use:   "connect <host-address>",
	Short: "Connect to a hosting machine and accept its input",
	Long: `Dials a hosting peer and replays the input it forwards. The address may
omit the port, in which case the configured protocol port is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		addr := withDefaultPort(args[0], cfg.Port)

		feed, err := startFeed(cfg)
		if err != nil {
			return fmt.Errorf("start event feed: %w", err)
		}
		if feed != nil {
			defer feed.Close()
		}

		ctx, cancel := signalContext()
		defer cancel()

		for {
			eng := newEngine(cfg, session.RoleClient, addr, feed)
			slog.Info("connecting", "addr", addr)
			err := runEngine(ctx, eng)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, permissions.ErrCaptureDenied):
				return err
			case !connectRetry:
				if errors.Is(err, errConnectionLost) {
					return nil
				}
				return err
			}

			slog.Warn("connection lost, retrying", "in", retryDelay, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
		}
	},
}

// withDefaultPort appends the protocol port when the address has none.
func withDefaultPort(addr string, port int) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}

func init() {
	connectCmd.Flags().BoolVar(&connectRetry, "retry", false, "keep redialing every 3s after failures and disconnects")
	rootCmd.AddCommand(connectCmd)
}
