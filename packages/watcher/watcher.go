// Package watcher ingests precomputed block reports from a directory, both the ones already present and the ones that
// appear later.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/panjf2000/ants/v2"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Watcher parses the block reports of a directory on a worker pool and hands the blocks to a handler.
type Watcher struct {
	Events *Events

	directory string
	handler   func(block *precomputed.Block)
	pool      *ants.Pool
	options   *options
}

// New creates a Watcher for the given directory.
func New(directory string, handler func(block *precomputed.Block), opts ...Option) (watcher *Watcher, err error) {
	watcher = &Watcher{
		Events:    newEvents(),
		directory: directory,
		handler:   handler,
		options:   newOptions(opts...),
	}

	if err = os.MkdirAll(directory, 0o755); err != nil {
		return nil, errors.Errorf("failed to create watch directory %s: %w", directory, err)
	}

	if watcher.pool, err = ants.NewPool(watcher.options.workerCount, ants.WithNonblocking(false)); err != nil {
		return nil, errors.Errorf("failed to create worker pool: %w", err)
	}

	return watcher, nil
}

// Scan parses all reports that are present in the directory and hands them to the handler ordered by height.
func (w *Watcher) Scan() (count int, err error) {
	entries, err := os.ReadDir(w.directory)
	if err != nil {
		return 0, errors.Errorf("failed to read watch directory %s: %w", w.directory, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && precomputed.IsBlockFile(entry.Name()) {
			paths = append(paths, filepath.Join(w.directory, entry.Name()))
		}
	}

	blocks := ParseFiles(w.pool, paths, w.reportParseFailure)
	for _, block := range blocks {
		w.handle(block)
	}

	w.options.log.Infof("scanned %d block reports in %s", len(blocks), w.directory)

	return len(blocks), nil
}

// Run watches the directory for new reports until the context is done.
func (w *Watcher) Run(ctx context.Context) (err error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("failed to create file system watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err = fsWatcher.Add(w.directory); err != nil {
		return errors.Errorf("failed to watch %s: %w", w.directory, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case fsEvent, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}

			if fsEvent.Op&(fsnotify.Create|fsnotify.Write) == 0 || !precomputed.IsBlockFile(fsEvent.Name) {
				continue
			}

			path := fsEvent.Name
			if submitErr := w.pool.Submit(func() { w.parse(path) }); submitErr != nil {
				w.options.log.Errorf("failed to schedule parsing of %s: %s", path, submitErr)
			}

		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}

			w.options.log.Warnf("file system watcher error: %s", watchErr)
		}
	}
}

// WorkerPoolStatus returns the name and the number of running workers of the parsing pool.
func (w *Watcher) WorkerPoolStatus() (name string, load int) {
	return "Watcher", w.pool.Running()
}

// Shutdown releases the worker pool.
func (w *Watcher) Shutdown() {
	w.pool.Release()
}

func (w *Watcher) parse(path string) {
	block, err := precomputed.ParseFile(path)
	if err != nil {
		// reports are parsed again on the following write event if they were incomplete
		w.reportParseFailure(path, err)
		return
	}

	w.handle(block)
}

func (w *Watcher) handle(block *precomputed.Block) {
	w.handler(block)
	w.Events.BlockParsed.Trigger(block)
}

func (w *Watcher) reportParseFailure(path string, err error) {
	w.options.log.Debugf("failed to parse %s: %s", path, err)
	w.Events.ParseFailed.Trigger(&ParseFailedEvent{Path: path, Error: err})
}

// ParseFiles parses the given report files on the worker pool and returns the blocks ordered by height. Files that
// can not be parsed are reported to the failure callback and skipped.
func ParseFiles(pool *ants.Pool, paths []string, onFailure func(path string, err error)) (blocks []*precomputed.Block) {
	var wg sync.WaitGroup
	var mutex sync.Mutex

	parse := func(path string) {
		defer wg.Done()

		block, err := precomputed.ParseFile(path)

		mutex.Lock()
		defer mutex.Unlock()

		if err != nil {
			onFailure(path, err)
			return
		}
		blocks = append(blocks, block)
	}

	for _, path := range paths {
		wg.Add(1)

		path := path
		if err := pool.Submit(func() { parse(path) }); err != nil {
			wg.Done()

			mutex.Lock()
			onFailure(path, errors.Errorf("failed to schedule parsing: %w", err))
			mutex.Unlock()
		}
	}
	wg.Wait()

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Height != blocks[j].Height {
			return blocks[i].Height < blocks[j].Height
		}

		return blocks[i].StateHash < blocks[j].StateHash
	})

	return blocks
}
