package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/jig/pkg/assemble"
	"github.com/chazu/jig/pkg/motion"
)

func newFramesCmd(f *rootFlags) *cobra.Command {
	var from, to, step float64
	cmd := &cobra.Command{
		Use:   "frames <scene>",
		Short: "Sample a scene's animation and print poses per frame as JSON",
		Long:  `Samples from --from to --to inclusive every --step. Without --from or --to the range covers every motion keyframe.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := f.setup(cmd)
			if err != nil {
				return err
			}
			g, err := e.load(args[0])
			if err != nil {
				return err
			}
			if start, end, ok := motion.Span(g); ok {
				if !cmd.Flags().Changed("from") {
					from = start
				}
				if !cmd.Flags().Changed("to") {
					to = end
				}
			}
			as, err := e.assembler().Build(cmd.Context(), g)
			if err != nil {
				return err
			}
			frames, err := as.Frames(cmd.Context(), from, to, step)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Fallback bool              `json:"fallback"`
				Frames   []*assemble.Frame `json:"frames"`
			}{as.Fallback, frames})
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "first sample time")
	cmd.Flags().Float64Var(&to, "to", 0, "last sample time")
	cmd.Flags().Float64Var(&step, "step", 0.1, "time between samples")
	return cmd
}
