package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/app"
	"github.com/nhle/pulse/internal/model"
	appsync "github.com/nhle/pulse/internal/sync"
)

func runCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive check-in dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), *flags)
		},
	}
}

func runTUI(ctx context.Context, flags globalFlags) error {
	r, err := newRuntime(ctx, flags, buildOptions{logToFile: true, withStore: true, withFeed: true})
	if err != nil {
		return err
	}
	defer r.Close()
	r.serveMetrics()

	poller := r.newPoller()
	unsubscribe := r.engine.Subscribe(poller.Publish)
	defer unsubscribe()

	m := app.New(app.Deps{
		Engine:    r.engine,
		Presenter: r.presenter,
		Poller:    poller,
		Events:    r.store,
	})

	r.logger.Info("pulse started",
		zap.String("version", Version),
		zap.String("backend", r.cfg.Backend.Kind),
		zap.String("state", r.cfg.State.Backend),
	)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	poller.Stop()
	if err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func watchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll without a UI and log every check-in",
		Long: `Watch runs the same polling loop as the dashboard but only logs the
check-ins it would show. Nobody can respond, so shown check-ins expire
on their own timers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := newRuntime(ctx, *flags, buildOptions{withStore: true, withFeed: true})
			if err != nil {
				return err
			}
			defer r.Close()
			r.serveMetrics()

			poller := r.newPoller()
			unsubscribe := r.engine.Subscribe(poller.Publish)
			defer unsubscribe()

			poller.Start()
			defer poller.Stop()

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					r.logger.Info("watch stopped")
					return nil
				case msg := <-poller.Messages():
					logView(r.logger, msg.View)
					if msg.View.Visible {
						fmt.Fprintf(out, "[%s] %s %s\n", msg.View.Stage, msg.View.Icon, msg.View.Message)
					}
				}
			}
		},
	}
}

func (r *appRuntime) newPoller() *appsync.Poller {
	return appsync.New(r.engine,
		r.cfg.CheckIn.PollInterval,
		r.cfg.CheckIn.ProgressInterval,
		r.logger.Named("poll"),
	)
}

func logView(logger *zap.Logger, v model.View) {
	if !v.Visible {
		logger.Debug("check-in hidden")
		return
	}
	logger.Info("check-in shown",
		zap.String("stage", string(v.Stage)),
		zap.String("category", string(v.Category)),
		zap.Int("count", v.Count),
		zap.String("message", v.Message),
	)
}
