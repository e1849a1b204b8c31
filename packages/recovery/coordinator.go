// Package recovery retrieves blocks the indexer is missing by invoking a Fetcher on a fixed retry schedule.
package recovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/cockroachdb/errors"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region Coordinator //////////////////////////////////////////////////////////////////////////////////////////////////

// Coordinator schedules requests for missing blocks. Every request is retried on a fixed interval until it is stopped,
// its block was retrieved or it exceeded the maximum number of attempts. Retrieved blocks are handed to the block
// handler, which usually enqueues them for the indexer.
type Coordinator struct {
	Events *Events

	fetcher           Fetcher
	destinationDir    string
	blockHandler      func(block *precomputed.Block)
	scheduledRequests map[string]*time.Timer
	recentlyFetched   *ttlcache.Cache
	options           *options

	ctx                    context.Context
	cancel                 context.CancelFunc
	scheduledRequestsMutex sync.RWMutex
}

// NewCoordinator creates a Coordinator that places retrieved reports in destinationDir.
func NewCoordinator(fetcher Fetcher, destinationDir string, blockHandler func(block *precomputed.Block), opts ...Option) (coordinator *Coordinator, err error) {
	coordinator = &Coordinator{
		Events:            newEvents(),
		fetcher:           fetcher,
		destinationDir:    destinationDir,
		blockHandler:      blockHandler,
		scheduledRequests: make(map[string]*time.Timer),
		recentlyFetched:   ttlcache.NewCache(),
		options:           newOptions(opts...),
	}
	coordinator.ctx, coordinator.cancel = context.WithCancel(context.Background())

	coordinator.recentlyFetched.SkipTTLExtensionOnHit(true)
	if err = coordinator.recentlyFetched.SetTTL(coordinator.options.recentlyFetchedTTL); err != nil {
		return nil, errors.WithStack(err)
	}

	if err = os.MkdirAll(destinationDir, 0o755); err != nil {
		return nil, errors.Errorf("failed to create destination directory %s: %w", destinationDir, err)
	}

	return coordinator, nil
}

// Sync starts the given requests and stops all scheduled requests that are not part of them.
func (c *Coordinator) Sync(requests []Request) {
	wanted := make(map[string]Request, len(requests))
	for _, request := range requests {
		wanted[request.key()] = request
	}

	c.scheduledRequestsMutex.Lock()
	for key, timer := range c.scheduledRequests {
		if _, exists := wanted[key]; !exists {
			timer.Stop()
			delete(c.scheduledRequests, key)
		}
	}
	c.scheduledRequestsMutex.Unlock()

	for _, request := range requests {
		c.StartRequest(request)
	}
}

// StartRequest schedules the request to be executed right away and then on every retry interval until it is stopped.
// Requests that are already scheduled or whose block was fetched recently are ignored.
func (c *Coordinator) StartRequest(request Request) {
	key := request.key()
	if _, err := c.recentlyFetched.Get(key); err == nil {
		return
	}

	c.scheduledRequestsMutex.Lock()
	defer c.scheduledRequestsMutex.Unlock()

	if c.ctx.Err() != nil {
		return
	}

	if _, exists := c.scheduledRequests[key]; exists {
		return
	}

	c.scheduledRequests[key] = time.AfterFunc(0, c.createRequest(request, 0))
}

// StopRequest stops further attempts of the request.
func (c *Coordinator) StopRequest(request Request) {
	c.scheduledRequestsMutex.Lock()
	defer c.scheduledRequestsMutex.Unlock()

	if timer, exists := c.scheduledRequests[request.key()]; exists {
		timer.Stop()
		delete(c.scheduledRequests, request.key())
	}
}

// RequestQueueSize returns the number of scheduled requests.
func (c *Coordinator) RequestQueueSize() int {
	c.scheduledRequestsMutex.RLock()
	defer c.scheduledRequestsMutex.RUnlock()

	return len(c.scheduledRequests)
}

// Fetch runs the Fetcher once for the request and hands the retrieved blocks to the block handler.
func (c *Coordinator) Fetch(ctx context.Context, request Request) (blocks []*precomputed.Block, err error) {
	if err = c.fetcher.Fetch(ctx, request, c.destinationDir); err != nil {
		return nil, err
	}

	if blocks, err = c.locate(request); err != nil {
		return nil, err
	}

	for _, block := range blocks {
		c.blockHandler(block)
		c.Events.BlockRecovered.Trigger(block)
	}

	return blocks, nil
}

// PollNewBlocks fetches the block returned by next on every interval until the context is done.
func (c *Coordinator) PollNewBlocks(ctx context.Context, interval time.Duration, next func() Request) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			request := next()
			if _, err := c.recentlyFetched.Get(request.key()); err == nil {
				continue
			}

			if blocks, err := c.Fetch(ctx, request); err != nil {
				c.options.log.Debugf("no new block at height %d: %s", request.Height, err)
			} else if len(blocks) != 0 {
				c.markFetched(request)
			}
		}
	}
}

// Shutdown stops all scheduled requests and aborts running fetches.
func (c *Coordinator) Shutdown() {
	c.scheduledRequestsMutex.Lock()
	defer c.scheduledRequestsMutex.Unlock()

	c.cancel()
	for key, timer := range c.scheduledRequests {
		timer.Stop()
		delete(c.scheduledRequests, key)
	}

	if err := c.recentlyFetched.Close(); err != nil {
		c.options.log.Errorw("Failed to close recently fetched cache", "err", err)
	}
}

func (c *Coordinator) request(request Request, count int) {
	c.Events.RequestSent.Trigger(&RequestEvent{Request: request, Count: count})

	_, err := c.Fetch(c.ctx, request)

	c.scheduledRequestsMutex.Lock()
	defer c.scheduledRequestsMutex.Unlock()

	// the request was stopped in the meantime
	if _, exists := c.scheduledRequests[request.key()]; !exists {
		return
	}

	if err == nil {
		delete(c.scheduledRequests, request.key())
		c.markFetched(request)
		c.options.log.Infof("recovered block at height %d", request.Height)

		return
	}

	count++
	c.options.log.Debugf("attempt %d to recover block at height %d failed: %s", count, request.Height, err)
	c.Events.RequestFailed.Trigger(&RequestFailedEvent{Request: request, Count: count, Error: err})

	if count >= c.options.maxRequestCount {
		delete(c.scheduledRequests, request.key())
		c.options.log.Warnf("dropped request for block at height %d after %d attempts", request.Height, count)
		c.Events.RequestDropped.Trigger(&RequestEvent{Request: request, Count: count})

		return
	}

	c.scheduledRequests[request.key()] = time.AfterFunc(c.options.retryInterval, c.createRequest(request, count))
}

func (c *Coordinator) createRequest(request Request, count int) func() {
	return func() { c.request(request, count) }
}

func (c *Coordinator) markFetched(request Request) {
	if err := c.recentlyFetched.Set(request.key(), struct{}{}); err != nil {
		c.options.log.Warnf("failed to remember fetched request %s: %s", request, err)
	}
}

// locate parses the report files the Fetcher placed for the request.
func (c *Coordinator) locate(request Request) (blocks []*precomputed.Block, err error) {
	paths := []string{filepath.Join(c.destinationDir, request.FileName())}
	if request.StateHash == "" {
		pattern := filepath.Join(c.destinationDir, precomputed.FileName(request.Network, request.Height, "*"))
		if paths, err = filepath.Glob(pattern); err != nil {
			return nil, errors.Errorf("failed to search %s: %w", pattern, err)
		}
	}

	for _, path := range paths {
		block, parseErr := precomputed.ParseFile(path)
		if parseErr != nil {
			if errors.Is(parseErr, os.ErrNotExist) {
				continue
			}

			return nil, errors.Errorf("failed to parse recovered block %s: %w", path, parseErr)
		}

		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return nil, errors.Errorf("no report for block at height %d in %s: %w", request.Height, c.destinationDir, ErrBlockNotPlaced)
	}

	return blocks, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
