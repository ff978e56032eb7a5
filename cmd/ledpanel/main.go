// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ledpanel drives an RGB LED matrix from a directory of
// script and clip scenes, per the engine and component design of
// SPEC_FULL.md. It is a thin main: build every component, wire them
// together, and hand off to the render loop, the way the teacher's
// own cmd/core builds a config and hands off to cli.Run.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/cogentcore/ledpanel/assetstore"
	"github.com/cogentcore/ledpanel/device"
	"github.com/cogentcore/ledpanel/engine"
	"github.com/cogentcore/ledpanel/internal/bootcfg"
	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/palettestore"
	"github.com/cogentcore/ledpanel/playlist"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/scenesrc"
	"github.com/cogentcore/ledpanel/state"
)

func main() {
	configPath := flag.String("config", "ledpanel.toml", "path to the process bootstrap TOML config")
	activate := flag.String("activate", "", "filename of a script or clip to activate on startup (optional)")
	playlistID := flag.String("playlist", "", "id of a persisted playlist to activate on startup (optional, overrides -activate)")
	flag.Parse()

	if err := run(*configPath, *activate, *playlistID); err != nil {
		slog.Error("ledpanel exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, activate, playlistID string) error {
	cfg, err := bootcfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("starting ledpanel", "width", cfg.Width, "height", cfg.Height, "backend", cfg.Backend)

	var backend device.Backend
	switch cfg.Backend {
	case "emulated", "":
		backend = device.NewEmulated(cfg.Width, cfg.Height, cfg.TargetFPS)
	default:
		return fmt.Errorf("unknown backend %q (only %q is built into this binary; a hardware GPIO/SPI backend is a separate build)", cfg.Backend, "emulated")
	}

	dev, err := device.New(backend, cfg.Brightness)
	if err != nil {
		return fmt.Errorf("constructing device: %w", err)
	}

	palettes, err := palettestore.NewStore(filepath.Join(cfg.DataDir, "palettes.json"))
	if err != nil {
		return fmt.Errorf("loading palettes: %w", err)
	}

	st, err := state.New(filepath.Join(cfg.DataDir, "config.json"), palettes)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	playlists, err := playlist.NewStore(filepath.Join(cfg.DataDir, "playlists.json"))
	if err != nil {
		return fmt.Errorf("loading playlists: %w", err)
	}

	scripts, err := scenesrc.NewScriptSource(filepath.Join(cfg.ScenesDir, "scripts"))
	if err != nil {
		return fmt.Errorf("opening script source: %w", err)
	}
	clips, err := scenesrc.NewClipSource(filepath.Join(cfg.ScenesDir, "clips"), cfg.Width, cfg.Height)
	if err != nil {
		return fmt.Errorf("opening clip source: %w", err)
	}
	loader := playlist.Loader{
		LoadScript: func(filename string) (scene.Scene, error) {
			return scripts.Instantiate(filename, cfg.Width, cfg.Height)
		},
		LoadClip: clips.Instantiate,
	}

	assets, err := assetstore.New(cfg.ScenesDir, filepath.Join(cfg.DataDir, "library.json"), cfg.Width, cfg.Height, playlists)
	if err != nil {
		return fmt.Errorf("opening asset store: %w", err)
	}

	eng := engine.New(dev, st)
	scheduler := assetstore.NewScheduler(assets, eng, st, cfg.Width, cfg.Height)

	switch {
	case playlistID != "":
		p, ok := playlists.Get(playlistID)
		if !ok {
			return fmt.Errorf("activating playlist %s: %w", playlistID, errs.ErrSceneNotFound)
		}
		st.SetScene(playlist.New(p.Items, loader))
	case activate != "":
		sc, kind, err := instantiateByFilename(scripts, clips, activate, cfg.Width, cfg.Height)
		if err != nil {
			return fmt.Errorf("activating %s: %w", activate, err)
		}
		st.SetScene(sc)
		if kind == playlist.KindScript {
			scheduler.Schedule(activate)
		}
	}

	watcher, watchErr := fsnotify.NewWatcher()
	if watchErr != nil {
		slog.Warn("scene directory watcher unavailable, manual file drops will not be picked up until restart", "error", watchErr)
	} else {
		defer watcher.Close()
		for _, dir := range []string{filepath.Join(cfg.ScenesDir, "scripts"), filepath.Join(cfg.ScenesDir, "clips")} {
			if err := watcher.Add(dir); err != nil {
				slog.Warn("could not watch scene directory", "dir", dir, "error", err)
			}
		}
		go watchScenes(watcher)
	}

	eng.RunThreaded()
	slog.Info("engine running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutdown signal received")
	eng.Stop()
	return nil
}

// instantiateByFilename resolves filename against whichever source
// owns its extension, mirroring the Kind dispatch playlist.Loader
// uses internally.
func instantiateByFilename(scripts *scenesrc.ScriptSource, clips *scenesrc.ClipSource, filename string, width, height int) (scene.Scene, playlist.ItemKind, error) {
	if filepath.Ext(filename) == ".gif" {
		sc, err := clips.Instantiate(filename)
		return sc, playlist.KindClip, err
	}
	sc, err := scripts.Instantiate(filename, width, height)
	return sc, playlist.KindScript, err
}

// watchScenes logs out-of-band filesystem changes to the scene
// directories; List() on every source and the asset store always
// re-reads the directory, so no cache invalidation is needed beyond
// observability (§4.8 "manual file drops").
func watchScenes(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			slog.Debug("scene directory changed", "event", event.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("scene directory watch error", "error", err)
		}
	}
}
