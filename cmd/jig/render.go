package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/jig/pkg/kernel/sdfx"
	"github.com/chazu/jig/pkg/render"
	"github.com/chazu/jig/pkg/tessellate"
)

func newRenderCmd(f *rootFlags) *cobra.Command {
	var (
		out           string
		at            float64
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "render <scene>",
		Short: "Draw one frame of a scene to a PNG",
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
			as, err := e.assembler().Build(cmd.Context(), g)
			if err != nil {
				return err
			}
			fr, err := as.Frame(at)
			if err != nil {
				return err
			}
			frame, err := tessellate.Tessellate(as.Graph, as.Drawn, fr.Poses, sdfx.New(), tessellate.Options{})
			if err != nil {
				return err
			}

			opts := e.cfg.Preview
			if width > 0 {
				opts.Width = width
			}
			if height > 0 {
				opts.Height = height
			}
			r, err := render.New(opts)
			if err != nil {
				return err
			}
			if err := r.SavePNG(out, as.Graph, frame); err != nil {
				return err
			}
			e.log.Info("rendered frame", "path", out, "t", at, "fallback", fr.Fallback)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "out.png", "PNG file to write")
	cmd.Flags().Float64Var(&at, "time", 0, "frame time")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels (default from settings)")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels (default from settings)")
	return cmd
}
