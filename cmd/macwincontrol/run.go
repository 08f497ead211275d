package macwincontrol

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/frank2889/MacWinControl/internal/api"
	"github.com/frank2889/MacWinControl/internal/config"
	"github.com/frank2889/MacWinControl/internal/engine"
	"github.com/frank2889/MacWinControl/internal/input"
	"github.com/frank2889/MacWinControl/internal/keymap"
	"github.com/frank2889/MacWinControl/internal/permissions"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/frank2889/MacWinControl/internal/session"
)

const statusPollInterval = 500 * time.Millisecond

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func nativePorts() engine.Ports {
	return engine.Ports{
		Capturer: input.NewCapturer(),
		Injector: input.NewInjector(),
		Screens:  screens.NewEnumerator(),
		Keymap:   keymap.Native(),
	}
}

func newEngine(cfg config.Config, role session.Role, addr string, feed *api.Feed) *engine.Engine {
	var obs engine.Observer
	if feed != nil {
		obs = feed.Observer()
	}
	return engine.New(engine.Config{
		Role:       role,
		Addr:       addr,
		SwitchEdge: cfg.Edge(),
		Detector:   cfg.Detector(),
		Session:    cfg.Session(),
	}, nativePorts(), obs)
}

func startFeed(cfg config.Config) (*api.Feed, error) {
	if cfg.FeedAddr == "" {
		return nil, nil
	}
	feed := api.NewFeed()
	if err := feed.Listen(cfg.FeedAddr); err != nil {
		return nil, err
	}
	return feed, nil
}

// runEngine starts the engine and blocks until the context is canceled or
// the session is gone for good. The engine is always stopped on return.
func runEngine(ctx context.Context, eng *engine.Engine) error {
	if err := eng.Start(); err != nil {
		if errors.Is(err, permissions.ErrCaptureDenied) {
			slog.Error("input capture permission missing; grant accessibility access and restart")
		}
		return err
	}
	defer eng.Stop()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if eng.SessionStatus() == session.StatusDisconnected {
				return errConnectionLost
			}
		}
	}
}

var errConnectionLost = errors.New("connection lost")
