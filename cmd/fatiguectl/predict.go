package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fatiguepinn/internal/config"
	"fatiguepinn/internal/dataextract"
	"fatiguepinn/pkg/fatiguepinn"
)

type predictOptions struct {
	config string
	inputs string
	out    string
	arrow  string
}

// NewPredictCommand runs a model over input sequences and emits the damage
// trajectory as CSV.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:           "predict",
		Short:         "Predict damage trajectories for input sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "model config yaml (required)")
	cmd.Flags().StringVar(&opts.inputs, "inputs", "", "sequence csv (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the trajectory csv here instead of stdout")
	cmd.Flags().StringVar(&opts.arrow, "arrow", "", "also write the trajectory as an arrow ipc stream")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("inputs")

	return cmd
}

func runPredict(cmd *cobra.Command, rootOpts *RootOptions, opts *predictOptions) error {
	ctx := cmd.Context()
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	inputs, err := readSequences(opts.inputs)
	if err != nil {
		return err
	}

	client, logger, err := rootOpts.openClient(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	built, err := client.BuildModel(ctx, cfg)
	if err != nil {
		return err
	}
	pred, err := client.Predict(ctx, built, fatiguepinn.PredictRequest{Inputs: inputs})
	if err != nil {
		return err
	}
	logger.Info("prediction complete",
		zap.String("model_id", built.ID),
		zap.Int("sequences", len(pred.IDs)),
		zap.Int("rows", len(pred.Rows)),
	)

	if opts.arrow != "" {
		if err := writeFileWith(opts.arrow, func(f *os.File) error {
			return dataextract.WriteTrajectoryArrow(f, pred.Rows)
		}); err != nil {
			return fmt.Errorf("write arrow trajectory: %w", err)
		}
	}
	if opts.out != "" {
		if err := writeFileWith(opts.out, func(f *os.File) error {
			return dataextract.WriteTrajectoryCSV(f, pred.Rows)
		}); err != nil {
			return fmt.Errorf("write trajectory: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows -> %s\n", len(pred.Rows), opts.out)
		return nil
	}
	return dataextract.WriteTrajectoryCSV(cmd.OutOrStdout(), pred.Rows)
}

func readSequences(path string) (dataextract.SequenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataextract.SequenceSet{}, err
	}
	defer f.Close()
	set, err := dataextract.ReadSequenceCSV(f)
	if err != nil {
		return dataextract.SequenceSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
