package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel/sdfx"
	"github.com/chazu/jig/pkg/shape"
)

func newValidateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scene>",
		Short: "Check a scene for consistency",
		Long:  `Reports load errors, dangling references, unknown anchors, degenerate tracks and unconstrained parts. Exits non-zero when any error is found.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := f.setup(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			g, err := e.load(args[0])
			if err != nil {
				errs := graph.Errors(err)
				for _, err := range errs {
					fmt.Fprintf(out, "[error] %s\n", err)
				}
				return fmt.Errorf("%s: %d errors", args[0], len(errs))
			}

			var findings []error
			_, geoms, err := shape.DrawAll(shape.NewLibrary(sdfx.New()), g)
			if err != nil {
				findings = graph.Errors(err)
				geoms = nil
			}
			result := graph.ValidateAll(g, geoms)
			for _, v := range result.Errors {
				findings = append(findings, v)
			}
			for _, err := range findings {
				if _, ok := err.(graph.ValidationError); ok {
					fmt.Fprintln(out, err)
				} else {
					fmt.Fprintf(out, "[error] %s\n", err)
				}
			}
			for _, w := range result.Warnings {
				fmt.Fprintln(out, w)
			}
			if len(findings) > 0 {
				return fmt.Errorf("%s: %d errors", args[0], len(findings))
			}
			fmt.Fprintf(out, "%s is valid (%d parts, %d tracks, %d constraints, %d motions)\n",
				args[0], len(g.Parts), len(g.Tracks), len(g.Constraints), len(g.Motions))
			return nil
		},
	}
}
