package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fatiguepinn/internal/dataextract"
)

type arrangeOptions struct {
	in  string
	out string
}

// NewArrangeCommand converts a CSV lookup table into its gridded JSON form.
func NewArrangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &arrangeOptions{}

	cmd := &cobra.Command{
		Use:           "arrange",
		Short:         "Arrange a CSV lookup table into an interpolation grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArrange(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "table csv file (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the gridded table json here instead of stdout")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runArrange(cmd *cobra.Command, opts *arrangeOptions) error {
	table, err := dataextract.ReadTableFileCSV(opts.in)
	if err != nil {
		return err
	}
	gridded, err := dataextract.ArrangeTable(table)
	if err != nil {
		return err
	}
	if opts.out != "" {
		if err := dataextract.WriteGriddedTableFile(opts.out, gridded); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "arranged %s shape=%v -> %s\n", gridded.Name, gridded.Shape, opts.out)
		return nil
	}
	data, err := dataextract.EncodeGriddedTable(gridded)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
