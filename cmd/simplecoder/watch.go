package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/martinemde/simplecoder/coder"
	"github.com/martinemde/simplecoder/config"
)

var watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun whenever the requirements or role config change",
	Long: `Runs once, then watches the role config and, when requirements are given
as >>FILE, the requirements file. Every settled change starts a new run
against the current output file.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, flags)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := watchedPaths(cfg, flags)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the parent directories.
	dirs := make(map[string]bool)
	for p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		appLogger().Debug("watching directory", zap.String("dir", dir))
	}

	out := cmd.OutOrStdout()
	rerun := func() {
		res, err := runOnce(ctx, cfg, flags, out)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("run failed: "+err.Error()))
			return
		}
		fmt.Fprintln(out, renderSummary(res))
	}

	rerun()
	return watchLoop(ctx, watcher.Events, watcher.Errors, paths, watchDebounce, rerun)
}

// watchedPaths returns the absolute files whose changes trigger a rerun.
func watchedPaths(cfg *config.Config, f runFlags) (map[string]bool, error) {
	paths := make(map[string]bool)

	role, err := coder.ExpandHome(cfg.RoleConfig)
	if err != nil {
		return nil, err
	}
	role, err = filepath.Abs(role)
	if err != nil {
		return nil, err
	}
	paths[role] = true

	if name, ok := coder.RequirementsFile(f.requirements); ok {
		ws, err := coder.NewWorkspace(cfg.WorkingDir)
		if err != nil {
			return nil, err
		}
		req, err := ws.Resolve(name)
		if err != nil {
			return nil, err
		}
		paths[req] = true
	}
	return paths, nil
}

// watchLoop calls trigger once a change to one of paths has been quiet for
// debounce. It returns when ctx ends or the watcher closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, paths map[string]bool, debounce time.Duration, trigger func()) error {
	tick := debounce / 5
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var (
		pending bool
		last    time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !paths[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			appLogger().Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending = true
			last = time.Now()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			appLogger().Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			if pending && time.Since(last) >= debounce {
				pending = false
				trigger()
			}
		}
	}
}
