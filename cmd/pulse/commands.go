package main

import (
	"fmt"
	"strconv"
	"time"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/theme"
	historyview "github.com/nhle/pulse/internal/ui/history"
	statsview "github.com/nhle/pulse/internal/ui/stats"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Poll once and print the counts and the top check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := newRuntime(ctx, *flags, buildOptions{withFeed: true})
			if err != nil {
				return err
			}
			defer r.Close()

			stats, details, err := r.fetcher().FetchStats(ctx)
			if err != nil {
				return fmt.Errorf("fetching records: %w", err)
			}
			r.metrics.SetCounts(stats)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Count", "Pri", "Examples"},
				statsview.Rows(stats, details),
			))

			top := message.Select(stats, details)
			fmt.Fprintf(out, "\n%s %s\n", top.Icon, top.Text)
			return nil
		},
	}
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var (
		limit    int
		category string
		kind     string
		since    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check-ins and responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := newRuntime(ctx, *flags, buildOptions{withStore: true})
			if err != nil {
				return err
			}
			defer r.Close()

			filter := store.EventFilter{Limit: limit}
			if category != "" {
				key := model.CategoryKey(category)
				if _, ok := model.LookupCategory(key); !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				filter.Category = &key
			}
			if kind != "" {
				k := model.EventKind(kind)
				filter.Kind = &k
			}
			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}

			events, err := r.store.GetEvents(ctx, filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No check-ins recorded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"When", "Event", "Category", "Count", "Message"},
				historyview.Rows(events),
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events to show")
	cmd.Flags().StringVar(&category, "category", "", "Only events for this category key")
	cmd.Flags().StringVar(&kind, "kind", "", "Only events of this kind (shown, attended, snoozed, dismissed, resolved, blocked, note)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this (e.g. 24h)")
	return cmd
}

func pruneCmd(flags *globalFlags) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete check-in history older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := newRuntime(ctx, *flags, buildOptions{withStore: true})
			if err != nil {
				return err
			}
			defer r.Close()

			window := olderThan
			if window <= 0 {
				window = r.cfg.State.HistoryRetention
			}
			before := time.Now().Add(-window)

			n, err := r.store.PruneEvents(ctx, before)
			if err != nil {
				return err
			}
			r.logger.Info("pruned history", zap.Int64("deleted", n), zap.Time("before", before))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s older than %s.\n", plural(n, "event"), before.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window (defaults to state.history_retention)")
	return cmd
}

func resetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget all acknowledgements, snoozes and the dismiss window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := newRuntime(ctx, *flags, buildOptions{withStore: true})
			if err != nil {
				return err
			}
			defer r.Close()

			if err := store.NewCheckinState(r.store).Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Check-in state cleared.")
			return nil
		},
	}
}

func renderTable(headers []string, rows []btable.Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(cells...).
		String()
}

func plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}
