package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fatiguepinn/pkg/fatiguepinn"
)

type runsOptions struct {
	limit int
}

// NewRunsCommand lists recorded training runs, newest first.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runsOptions{}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded training runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, rootOpts *RootOptions, opts *runsOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	ctx := cmd.Context()
	client, logger, err := rootOpts.openClient(ctx, nil)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	runs, err := client.Runs(ctx, fatiguepinn.RunsRequest{Limit: opts.limit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "no runs recorded")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tMODEL\tVARIANT\tOPTIMIZER\tEPOCHS\tFINAL_LOSS\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%g\t%s\n",
			run.ID, run.ModelID, run.Variant, run.Optimizer, run.Epochs, run.FinalLoss,
			run.CreatedAtUTC.Format("2006-01-02T15:04:05Z"))
	}
	return w.Flush()
}

type runOptions struct {
	id string
}

// NewRunCommand prints one recorded run as JSON.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Show a recorded training run",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "run id (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runShow(cmd *cobra.Command, rootOpts *RootOptions, opts *runOptions) error {
	ctx := cmd.Context()
	client, logger, err := rootOpts.openClient(ctx, nil)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	run, err := client.Run(ctx, opts.id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
