package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/logger"
)

// watchDebounce batches rapid events for the same file. Editors often
// emit several writes per save.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch files or directories and re-index on change",
	Long: `Watches the given paths and re-ingests files as they are created or
modified. Runs until interrupted. Changes are debounced so a single
save triggers one ingest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestCoordinator == nil {
		return errors.New("ingest service not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range args {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %d paths. Press Ctrl-C to stop.\n", len(args))

	pending := make(map[string]struct{})
	flush := time.NewTimer(watchDebounce)
	flush.Stop()

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if skipWatchPath(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			flush.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-flush.C:
			paths := drainPending(pending)
			if len(paths) == 0 {
				continue
			}
			ingestChanged(ctx, cmd, paths)
		}
	}
}

// skipWatchPath filters editor temp files and hidden files.
func skipWatchPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.IsDir()
}

func drainPending(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	sort.Strings(paths)
	return paths
}

func ingestChanged(ctx context.Context, cmd *cobra.Command, paths []string) {
	reports, err := ingestCoordinator.Ingest(ctx, paths)
	if err != nil {
		cmd.Printf("ingest failed: %v\n", err)
		return
	}

	for _, r := range reports {
		if r.Failed() {
			cmd.Printf("  failed  %s: %v\n", r.Path, r.Err)
			continue
		}
		cmd.Printf("  indexed %s: %d chunks\n", r.Path, len(r.ChunkIDs))
	}

	if vectorIndex != nil {
		if err := vectorIndex.Persist(ctx); err != nil {
			cmd.Printf("persisting index: %v\n", err)
		}
	}
}
