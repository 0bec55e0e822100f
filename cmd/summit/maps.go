package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/summit-editor/summit/pkg/errs"
	"github.com/summit-editor/summit/pkg/level"
	"github.com/summit-editor/summit/pkg/mapbin"
	"github.com/summit-editor/summit/pkg/preview"
)

func bin2jsonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bin2json [map.bin] [map.json]",
		Short: "Convert a binary map to JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return mapbin.BinToJSON(args[0], args[1])
		},
	}
}

func json2binCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json2bin [map.json] [map.bin]",
		Short: "Convert a JSON map back to the binary format",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return mapbin.JSONToBin(args[0], args[1])
		},
	}
}

func levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels [map.bin]",
		Short: "List the rooms of a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tX\tY\tWIDTH\tHEIGHT\tDECALS")

			for _, r := range store.Records() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n",
					r.ID, r.Name, r.X, r.Y, r.Width, r.Height, len(r.ForegroundDecals)+len(r.BackgroundDecals))
			}

			return w.Flush()
		},
	}
}

func renderCmd(a *app) *cobra.Command {
	var (
		scale    int
		noDecals bool
	)

	cmd := &cobra.Command{
		Use:   "render [map.bin] [level] [out.png]",
		Short: "Render one room to a PNG using the game's atlases and tilesets",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := loadStore(args[0])
			if err != nil {
				return err
			}

			rec, ok := store.ByName(args[1])
			if !ok {
				return errs.NotFound("level %q in %s", args[1], args[0])
			}

			fg, bg, err := a.loadContent()
			if err != nil {
				return err
			}

			r := preview.New(fg, bg)
			r.Scale = scale
			r.Decals = !noDecals

			img, err := r.Render(store, rec.ID)
			if err != nil {
				return err
			}

			return writePNG(args[2], img)
		},
	}

	cmd.Flags().IntVarP(&scale, "scale", "s", 1, "output pixels per map pixel")
	cmd.Flags().BoolVar(&noDecals, "no-decals", false, "skip decals")

	return cmd
}

func loadStore(path string) (*level.Store, error) {
	m, err := mapbin.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return level.Extract(m)
}
