package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fatiguepinn/internal/config"
	"fatiguepinn/internal/dataextract"
	"fatiguepinn/pkg/fatiguepinn"
)

type trainOptions struct {
	config  string
	inputs  string
	targets string
	epochs  int
}

type trainOutput struct {
	RunID       string             `json:"run_id"`
	ModelID     string             `json:"model_id"`
	Optimizer   string             `json:"optimizer"`
	Epochs      int                `json:"epochs"`
	FinalLoss   float64            `json:"final_loss"`
	Metrics     map[string]float64 `json:"metrics"`
	History     []float64          `json:"loss_history"`
	Evaluations int                `json:"objective_evaluations"`
}

// NewTrainCommand fits a model to sparse damage targets and records the run.
func NewTrainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:           "train",
		Short:         "Train a model against damage targets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "model config yaml (required)")
	cmd.Flags().StringVar(&opts.inputs, "inputs", "", "sequence csv (required)")
	cmd.Flags().StringVar(&opts.targets, "targets", "", "target csv (required)")
	cmd.Flags().IntVar(&opts.epochs, "epochs", 0, "override the configured epoch count")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("inputs")
	_ = cmd.MarkFlagRequired("targets")

	return cmd
}

func runTrain(cmd *cobra.Command, rootOpts *RootOptions, opts *trainOptions) error {
	if opts.epochs < 0 {
		return fmt.Errorf("--epochs must be >= 0")
	}
	ctx := cmd.Context()
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	inputs, err := readSequences(opts.inputs)
	if err != nil {
		return err
	}
	targets, err := readTargets(opts.targets, inputs.IDs)
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
	summary, err := client.Train(ctx, built, fatiguepinn.TrainRequest{
		Inputs:  inputs,
		Targets: targets,
		Epochs:  opts.epochs,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(trainOutput{
		RunID:       summary.RunID,
		ModelID:     summary.ModelID,
		Optimizer:   summary.Optimizer,
		Epochs:      summary.Report.EpochsExecuted,
		FinalLoss:   summary.FinalLoss,
		Metrics:     summary.Evaluation.Metrics,
		History:     summary.History,
		Evaluations: summary.Report.ObjectiveEvaluations,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func readTargets(path string, ids []string) (dataextract.Targets, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataextract.Targets{}, err
	}
	defer f.Close()
	targets, err := dataextract.ReadTargetsCSV(f, ids)
	if err != nil {
		return dataextract.Targets{}, fmt.Errorf("%s: %w", path, err)
	}
	return targets, nil
}
