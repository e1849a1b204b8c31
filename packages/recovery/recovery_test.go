package recovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

const (
	testProducer precomputed.PublicKey = "B62qTestProducer"
	testNetwork                        = "testnet"
)

func TestCoordinator_Recover(t *testing.T) {
	source, destination := t.TempDir(), t.TempDir()
	block := writeBlock(t, source, "3NMissing", 5)

	fetcher := newMockFetcher(source)
	handled := newBlockCollector()

	coordinator, err := NewCoordinator(fetcher, destination, handled.add, WithRetryInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer coordinator.Shutdown()

	recovered := atomic.NewInt32(0)
	coordinator.Events.BlockRecovered.Attach(event.NewClosure(func(*precomputed.Block) { recovered.Inc() }))

	request := NewRequest(testNetwork, 5, block.StateHash)
	coordinator.StartRequest(request)

	require.Eventually(t, func() bool { return len(handled.get()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, block.StateHash, handled.get()[0].StateHash)
	require.Eventually(t, func() bool { return coordinator.RequestQueueSize() == 0 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return recovered.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	// recently fetched requests are not started again
	coordinator.StartRequest(request)
	assert.Equal(t, 0, coordinator.RequestQueueSize())
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCoordinator_RetryAndDrop(t *testing.T) {
	fetcher := newMockFetcher(t.TempDir())
	handled := newBlockCollector()

	coordinator, err := NewCoordinator(fetcher, t.TempDir(), handled.add, WithRetryInterval(10*time.Millisecond), WithMaxRequestCount(3))
	require.NoError(t, err)
	defer coordinator.Shutdown()

	dropped := atomic.NewInt32(0)
	coordinator.Events.RequestDropped.Attach(event.NewClosure(func(*RequestEvent) { dropped.Inc() }))

	coordinator.StartRequest(NewRequest(testNetwork, 7, "3NNeverPlaced"))

	require.Eventually(t, func() bool { return coordinator.RequestQueueSize() == 0 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return dropped.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), fetcher.calls.Load())
	assert.Empty(t, handled.get())
}

func TestCoordinator_Sync(t *testing.T) {
	fetcher := newMockFetcher(t.TempDir())

	coordinator, err := NewCoordinator(fetcher, t.TempDir(), func(*precomputed.Block) {}, WithRetryInterval(time.Hour))
	require.NoError(t, err)
	defer coordinator.Shutdown()

	first, second := NewRequest(testNetwork, 3, "3NFirst"), NewRequest(testNetwork, 4, "3NSecond")

	coordinator.Sync([]Request{first, second})
	assert.Equal(t, 2, coordinator.RequestQueueSize())

	coordinator.Sync([]Request{second})
	assert.Equal(t, 1, coordinator.RequestQueueSize())

	coordinator.StopRequest(second)
	assert.Equal(t, 0, coordinator.RequestQueueSize())
}

func TestCoordinator_FetchByHeight(t *testing.T) {
	source, destination := t.TempDir(), t.TempDir()
	writeBlock(t, source, "3NCandidateA", 9)
	writeBlock(t, source, "3NCandidateB", 9)

	handled := newBlockCollector()
	coordinator, err := NewCoordinator(newMockFetcher(source), destination, handled.add)
	require.NoError(t, err)
	defer coordinator.Shutdown()

	blocks, err := coordinator.Fetch(context.Background(), NewRequest(testNetwork, 9, ""))
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
	assert.Len(t, handled.get(), 2)

	// the fetcher reports that no block exists at the height
	_, err = coordinator.Fetch(context.Background(), NewRequest(testNetwork, 10, ""))
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Len(t, handled.get(), 2)
}

func TestCoordinator_FetchNotPlaced(t *testing.T) {
	handled := newBlockCollector()
	coordinator, err := NewCoordinator(fetcherFunc(func(context.Context, Request, string) error { return nil }), t.TempDir(), handled.add)
	require.NoError(t, err)
	defer coordinator.Shutdown()

	_, err = coordinator.Fetch(context.Background(), NewRequest(testNetwork, 10, ""))
	assert.ErrorIs(t, err, ErrBlockNotPlaced)

	_, err = coordinator.Fetch(context.Background(), NewRequest(testNetwork, 10, "3NAbsent"))
	assert.ErrorIs(t, err, ErrBlockNotPlaced)
	assert.Empty(t, handled.get())
}

func TestHTTPFetcher(t *testing.T) {
	source := t.TempDir()
	block := writeBlock(t, source, "3NRemote", 12)

	server := httptest.NewServer(http.FileServer(http.Dir(source)))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL+"/", time.Second)
	destination := t.TempDir()

	require.NoError(t, fetcher.Fetch(context.Background(), NewRequest(testNetwork, 12, block.StateHash), destination))
	fetched, err := precomputed.ParseFile(filepath.Join(destination, block.FileName()))
	require.NoError(t, err)
	assert.Equal(t, block.StateHash, fetched.StateHash)

	err = fetcher.Fetch(context.Background(), NewRequest(testNetwork, 13, "3NUnknown"), destination)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.NoFileExists(t, filepath.Join(destination, precomputed.FileName(testNetwork, 13, "3NUnknown")))

	err = fetcher.Fetch(context.Background(), NewRequest(testNetwork, 13, ""), destination)
	assert.ErrorIs(t, err, ErrStateHashRequired)
}

func TestExecFetcher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	source, destination := t.TempDir(), t.TempDir()
	block := writeBlock(t, source, "3NScripted", 21)

	script := filepath.Join(t.TempDir(), "fetch.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncp "+source+"/$1-$2-$4.json $3/\n"), 0o700))

	fetcher := NewExecFetcher(script)
	require.NoError(t, fetcher.Fetch(context.Background(), NewRequest(testNetwork, 21, block.StateHash), destination))
	assert.FileExists(t, filepath.Join(destination, block.FileName()))

	err := fetcher.Fetch(context.Background(), NewRequest(testNetwork, 22, "3NMissing"), destination)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

// fetcherFunc turns a function into a Fetcher.
type fetcherFunc func(ctx context.Context, request Request, destinationDir string) error

func (f fetcherFunc) Fetch(ctx context.Context, request Request, destinationDir string) error {
	return f(ctx, request, destinationDir)
}

// region mockFetcher //////////////////////////////////////////////////////////////////////////////////////////////////

// mockFetcher copies reports from a source directory.
type mockFetcher struct {
	source string
	calls  *atomic.Int32
}

func newMockFetcher(source string) *mockFetcher {
	return &mockFetcher{source: source, calls: atomic.NewInt32(0)}
}

func (m *mockFetcher) Fetch(_ context.Context, request Request, destinationDir string) error {
	m.calls.Inc()

	pattern := precomputed.FileName(request.Network, request.Height, request.StateHash)
	if request.StateHash == "" {
		pattern = precomputed.FileName(request.Network, request.Height, "*")
	}

	matches, err := filepath.Glob(filepath.Join(m.source, pattern))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return errors.Errorf("no report for %s: %w", request, ErrFetchFailed)
	}

	for _, match := range matches {
		content, readErr := os.ReadFile(match)
		if readErr != nil {
			return readErr
		}
		if writeErr := os.WriteFile(filepath.Join(destinationDir, filepath.Base(match)), content, 0o600); writeErr != nil {
			return writeErr
		}
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

type blockCollector struct {
	blocks []*precomputed.Block
	mutex  sync.Mutex
}

func newBlockCollector() *blockCollector {
	return &blockCollector{}
}

func (b *blockCollector) add(block *precomputed.Block) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.blocks = append(b.blocks, block)
}

func (b *blockCollector) get() []*precomputed.Block {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return append([]*precomputed.Block{}, b.blocks...)
}

func writeBlock(t *testing.T, directory string, stateHash precomputed.StateHash, height uint32) *precomputed.Block {
	block := &precomputed.Block{
		StateHash:         stateHash,
		PreviousStateHash: "3NParent",
		Height:            height,
		Network:           testNetwork,
		Creator:           testProducer,
		CoinbaseReceiver:  testProducer,
		Winner:            testProducer,
	}

	_, err := precomputed.WriteTestReport(directory, block)
	require.NoError(t, err)

	return block
}
