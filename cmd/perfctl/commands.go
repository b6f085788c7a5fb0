package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/loader"
	"github.com/godilite/perf-dashboard/internal/repository"
	"github.com/godilite/perf-dashboard/internal/service"
	dbbuilder "github.com/godilite/perf-dashboard/pkg/database"
)

const noDataMessage = "No data for this selection."

type options struct {
	file    string
	asJSON  bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "perfctl",
		Short:        "Summarize Target vs Actual performance from a workbook",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "detaileddata.xlsx", "Input workbook")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log loader activity to stderr")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newDivisionsCmd(opts),
		newStakeholdersCmd(opts),
		newBreakdownCmd(opts),
	)
	return rootCmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate Target and Actual by division, stakeholder or pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groupBy, err := service.ParseGroupBy(by)
			if err != nil {
				return fmt.Errorf("invalid --by (must be division, stakeholder or pair): %w", err)
			}
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *service.PerformanceService) error {
				summary, err := svc.Summarize(ctx, groupBy)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), summary)
				}
				return writeSummary(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", string(service.GroupByDivision), "Grouping: division, stakeholder or pair")
	return cmd
}

func newDivisionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "divisions",
		Short: "List divisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *service.PerformanceService) error {
				divisions, err := svc.Divisions(ctx)
				if err != nil {
					return err
				}
				return opts.writeList(cmd.OutOrStdout(), divisions)
			})
		},
	}
}

func newStakeholdersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stakeholders <division>",
		Short: "List stakeholders present within a division",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *service.PerformanceService) error {
				stakeholders, err := svc.Stakeholders(ctx, args[0])
				if err != nil {
					return err
				}
				return opts.writeList(cmd.OutOrStdout(), stakeholders)
			})
		},
	}
}

func newBreakdownCmd(opts *options) *cobra.Command {
	var division, stakeholder string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show the summary and detail rows of one division and stakeholder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *service.PerformanceService) error {
				b, err := svc.Breakdown(ctx, division, stakeholder)
				if errors.Is(err, service.ErrNoData) {
					_, werr := fmt.Fprintln(cmd.OutOrStdout(), noDataMessage)
					return werr
				}
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), b)
				}
				return writeBreakdown(cmd.OutOrStdout(), b)
			})
		},
	}
	cmd.Flags().StringVar(&division, "division", "", "Division to select")
	cmd.Flags().StringVar(&stakeholder, "stakeholder", "", "Stakeholder to select")
	_ = cmd.MarkFlagRequired("division")
	_ = cmd.MarkFlagRequired("stakeholder")
	return cmd
}

// withService loads the workbook into a private in-memory database and runs
// fn against a service backed by it.
func (o *options) withService(ctx context.Context, fn func(context.Context, *service.PerformanceService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger init failed: %w", err)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	db, err := dbbuilder.New(
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithRetry(1, 0),
	)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close()

	repo := repository.NewPerformanceRepository(db, dbbuilder.DefaultDriver)
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	store := dataset.NewStore(o.file, loader.New(logger), repo, dataset.WithLogger(logger))
	if _, err := store.Ensure(ctx); err != nil {
		return err
	}
	return fn(ctx, service.NewPerformanceService(repo, store, logger))
}

func (o *options) writeList(w io.Writer, items []string) error {
	if items == nil {
		items = []string{}
	}
	if o.asJSON {
		return writeJSON(w, items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, s service.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch s.GroupBy {
	case service.GroupByDivision:
		fmt.Fprintln(tw, "Division\tTarget\tActual\tPerformance\t")
	case service.GroupByStakeholder:
		fmt.Fprintln(tw, "Stakeholder\tTarget\tActual\tPerformance\t")
	default:
		fmt.Fprintln(tw, "Division\tStakeholder\tTarget\tActual\tPerformance\t")
	}
	for _, g := range s.Groups {
		switch s.GroupBy {
		case service.GroupByDivision:
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", g.Division, g.Target, g.Actual, g.Label)
		case service.GroupByStakeholder:
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", g.Stakeholder, g.Target, g.Actual, g.Label)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t\n", g.Division, g.Stakeholder, g.Target, g.Actual, g.Label)
		}
	}
	return tw.Flush()
}

func writeBreakdown(w io.Writer, b service.Breakdown) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Stakeholder\tTarget\tActual\tPerformance\t")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", b.Stakeholder, b.Summary.Target, b.Summary.Actual, b.Summary.Label)
	fmt.Fprintln(tw, "\t\t\t\t")
	fmt.Fprintln(tw, "Name\tTarget\tActual\tPerformance %\t")
	for _, d := range b.Details {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", d.Name, d.Target, d.Actual, d.Label)
	}
	return tw.Flush()
}
