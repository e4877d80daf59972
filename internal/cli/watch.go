package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/notify"
	"github.com/dshills/hyprtune/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		delay  time.Duration
		buffer int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made to the state directory",
		Long: `Watch the state directory and reload documents changed by other hyprtune
processes. Each change to the global overrides or the hotkeys is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Payloads are printed off the reload path.
			notifier := notify.New(notify.WithAsync(buffer))
			s, err := a.open(engine.WithNotifier(notifier))
			if err != nil {
				notifier.Close()
				return err
			}
			defer func() { _ = s.close() }()
			defer notifier.Close()

			w, err := watcher.New(s.files, s.files.WatchDirs(),
				watcher.WithDebounceDelay(delay),
				watcher.WithBufferSize(buffer))
			if err != nil {
				return err
			}
			defer func() {
				_ = w.Close()
				log.WithField("events", w.TotalEvents()).Info("watch stopped")
			}()

			out := cmd.OutOrStdout()
			notifier.Subscribe(notify.SkipEmitter(s.engine.Emitter(), func(p notify.Payload) {
				printPayload(out, p)
			}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "%s %s\n", TitleStyle.Render("watching"), s.files.Dir())
			if err := watcher.Run(ctx, w, s.engine); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", watcher.DefaultDebounceDelay, "quiet period before a changed document is reloaded")
	cmd.Flags().IntVar(&buffer, "buffer", watcher.DefaultBufferSize, "size of the event and output queues")
	return cmd
}

func printPayload(out io.Writer, p notify.Payload) {
	stamp := SubtitleStyle.Render(time.Now().Format("15:04:05"))
	switch p.Event {
	case notify.EventGlobalOverrides:
		fmt.Fprintf(out, "%s %s %d global overrides\n", stamp, KeyStyle.Render(p.Emitter), len(p.Params))
	case notify.EventHotkeys:
		fmt.Fprintf(out, "%s %s %d hotkey overrides\n", stamp, KeyStyle.Render(p.Emitter), len(p.Hotkeys))
	default:
		fmt.Fprintf(out, "%s %s %s\n", stamp, KeyStyle.Render(p.Emitter), p.Event)
	}
}
