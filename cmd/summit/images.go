package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/summit-editor/summit/pkg/atlas"
	"github.com/summit-editor/summit/pkg/content"
	"github.com/summit-editor/summit/pkg/errs"
	"github.com/summit-editor/summit/pkg/tileset"
	"github.com/summit-editor/summit/pkg/xnb"
)

func atlasCmd(a *app) *cobra.Command {
	var dir, export string

	cmd := &cobra.Command{
		Use:   "atlas [name]",
		Short: "List the sprites of an atlas, optionally exporting them as PNGs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				paths, err := a.paths()
				if err != nil {
					return err
				}

				dir = paths.Atlases()
			}

			at, err := atlas.Load(args[0], dir)
			if err != nil {
				return err
			}

			if export != "" {
				return exportSprites(at, export)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tDATA\tX\tY\tWIDTH\tHEIGHT")

			for _, path := range at.Paths() {
				s, _ := at.Sprite(path)
				md := s.Metadata
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", path, s.DataFile, md.X, md.Y, md.Width, md.Height)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the .meta file (default: the install's atlas directory)")
	cmd.Flags().StringVar(&export, "export", "", "write every sprite as a PNG under this directory")

	return cmd
}

func exportSprites(at *atlas.Atlas, dir string) error {
	for _, path := range at.Paths() {
		s, _ := at.Sprite(path)

		out := filepath.Join(dir, filepath.FromSlash(path)+".png")
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}

		if err := writePNG(out, s.Image()); err != nil {
			return err
		}
	}

	log.Info().Msgf("exported %d sprites from %s", at.Len(), at.Name)

	return nil
}

func data2pngCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data2png [in.data] [out.png]",
		Short: "Decode an atlas .data image to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return errs.NotFound("data file %s", args[0])
				}

				return fmt.Errorf("opening %s: %w", args[0], err)
			}

			defer f.Close()

			img, err := atlas.DecodeData(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			return writePNG(args[1], img)
		},
	}
}

func png2dataCmd() *cobra.Command {
	var opaque bool

	cmd := &cobra.Command{
		Use:   "png2data [in.png] [out.data]",
		Short: "Encode a PNG as an atlas .data image",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			img, err := xnb.LoadTexture(args[0])
			if err != nil {
				return err
			}

			data, err := atlas.EncodeData(img, !opaque)
			if err != nil {
				return err
			}

			return os.WriteFile(args[1], data, 0o644)
		},
	}

	cmd.Flags().BoolVar(&opaque, "opaque", false, "write without an alpha channel")

	return cmd
}

func xnb2pngCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xnb2png [in.xnb] [out.png]",
		Short: "Convert an uncompressed XNB texture to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			img, err := xnb.LoadTexture(args[0])
			if err != nil {
				return err
			}

			return writePNG(args[1], img)
		},
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	return f.Close()
}

// loadContent loads the configured atlases into the global sprite table and
// returns the foreground and background tile rules. Missing atlases are
// skipped so rendering falls back to flat colours.
func (a *app) loadContent() (fg, bg tileset.Rules, err error) {
	paths, err := a.paths()
	if err != nil {
		return nil, nil, err
	}

	if _, err = a.loadAtlases(paths); err != nil {
		return nil, nil, err
	}

	fgPath, bgPath := a.rulePaths(paths)

	return tileset.Default().Get(fgPath), tileset.Default().Get(bgPath), nil
}

func (a *app) loadAtlases(paths content.Paths) (*atlas.Manager, error) {
	mgr := atlas.NewManager(nil)

	for _, name := range a.cfg.Atlases {
		if _, err := mgr.LoadAtlas(name, paths.Atlases()); err != nil {
			if !errs.Recoverable(err) {
				return nil, err
			}

			log.Warn().Err(err).Msgf("atlas %s not loaded", name)
		}
	}

	return mgr, nil
}

func (a *app) rulePaths(paths content.Paths) (fg, bg string) {
	fg, bg = a.cfg.ForegroundTiles, a.cfg.BackgroundTiles

	if fg == "" {
		fg = paths.ForegroundTiles()
	}

	if bg == "" {
		bg = paths.BackgroundTiles()
	}

	return fg, bg
}
