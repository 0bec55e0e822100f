package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/summit-editor/summit/pkg/atlas"
	"github.com/summit-editor/summit/pkg/content"
	"github.com/summit-editor/summit/pkg/tileset"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload atlases and tile rules as their files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := a.paths()
			if err != nil {
				return err
			}

			mgr, err := a.loadAtlases(paths)
			if err != nil {
				return err
			}

			w, err := content.NewWatcher(paths.Atlases(), paths.Graphics())
			if err != nil {
				return err
			}

			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			log.Info().Msgf("watching %s", paths.Graphics())

			return a.watch(ctx, w, mgr, paths)
		},
	}
}

func (a *app) watch(ctx context.Context, w *content.Watcher, mgr *atlas.Manager, paths content.Paths) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.Warn().Err(err).Msg("watcher")
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}

			a.reload(mgr, paths, name)
		}
	}
}

func (a *app) reload(mgr *atlas.Manager, paths content.Paths, name string) {
	if filepath.Ext(name) == ".xml" {
		tileset.Default().Reset()
		log.Info().Msgf("tile rules changed: %s", filepath.Base(name))

		return
	}

	atlasName := content.AtlasName(name)
	if atlasName == "" {
		// a .data file changed; reload every loaded atlas
		for _, n := range mgr.Names() {
			a.reloadAtlas(mgr, paths, n)
		}

		return
	}

	a.reloadAtlas(mgr, paths, atlasName)
}

func (a *app) reloadAtlas(mgr *atlas.Manager, paths content.Paths, name string) {
	at, err := mgr.LoadAtlas(name, paths.Atlases())
	if err != nil {
		log.Warn().Err(err).Msgf("reloading atlas %s", name)
		return
	}

	log.Info().Msgf("reloaded atlas %s (%d sprites)", name, at.Len())
}
