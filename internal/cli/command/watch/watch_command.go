package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
	"github.com/Tomas-vilte/MateWatch/internal/services"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

type WatchCommandFactory struct {
	monitor *services.Monitor
	engine  *services.Engine
}

func NewWatchCommandFactory(monitor *services.Monitor, engine *services.Engine) *WatchCommandFactory {
	return &WatchCommandFactory{
		monitor: monitor,
		engine:  engine,
	}
}

// CreateCommand builds the watch command. It blocks until SIGINT or
// SIGTERM, then drains the engine before returning.
func (f *WatchCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: t.GetMessage("watch_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx = logger.Named(ctx, "watch")
			log := logger.FromContext(ctx)
			fmt.Println(t.GetMessage("watch_starting", 0, nil))

			f.monitor.Start(ctx)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Info("signal received", "signal", sig.String())
			case <-ctx.Done():
			}

			fmt.Println(t.GetMessage("watch_stopping", 0, nil))

			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			f.monitor.Stop(stopCtx)
			if err := f.engine.Shutdown(stopCtx); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("watch_stopped", 0, nil))
			return nil
		},
	}
}
