package page

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads a Renderer whenever its template changes on disk.
type Watcher struct {
	dir      string
	renderer *Renderer
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching dir. The directory is watched rather than the
// file so editors that save via rename are still picked up.
func NewWatcher(dir string, r *Renderer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, renderer: r, fsw: fsw}, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != w.renderer.name {
				continue
			}
			// a rename-save removes the old file first; the Create that
			// follows carries the new content
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.renderer.Reload(); err != nil {
				log.Warn().Err(err).Str("dir", w.dir).Msg("template reload failed, keeping previous version")
				continue
			}
			log.Info().Str("template", ev.Name).Msg("template reloaded")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("dir", w.dir).Msg("template watcher")
		}
	}
}
