package recovery

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
)

// Fetcher retrieves the report of a requested block and places it in the destination directory.
type Fetcher interface {
	Fetch(ctx context.Context, request Request, destinationDir string) error
}

// region ExecFetcher //////////////////////////////////////////////////////////////////////////////////////////////////

// ExecFetcher runs an external executable as `<executable> <network> <height> <destination_dir> [<state_hash>]`.
type ExecFetcher struct {
	executable string
}

// NewExecFetcher creates a Fetcher that delegates to the given executable.
func NewExecFetcher(executable string) *ExecFetcher {
	return &ExecFetcher{executable: executable}
}

// Fetch runs the executable and waits for it to finish.
func (e *ExecFetcher) Fetch(ctx context.Context, request Request, destinationDir string) error {
	args := []string{request.Network, strconv.FormatUint(uint64(request.Height), 10), destinationDir}
	if request.StateHash != "" {
		args = append(args, string(request.StateHash))
	}

	if output, err := exec.CommandContext(ctx, e.executable, args...).CombinedOutput(); err != nil {
		return errors.Errorf("%s %s failed: %v (%s): %w", e.executable, strings.Join(args, " "), err, strings.TrimSpace(string(output)), ErrFetchFailed)
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region HTTPFetcher //////////////////////////////////////////////////////////////////////////////////////////////////

// HTTPFetcher downloads `<base_url>/<network>-<height>-<state_hash>.json` into the destination directory.
type HTTPFetcher struct {
	client  *resty.Client
	baseURL string
}

// NewHTTPFetcher creates a Fetcher that downloads block reports from the given base URL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:  resty.New().SetTimeout(timeout).SetRetryCount(0),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Fetch downloads the requested block report. Blocks can only be downloaded by state hash.
func (h *HTTPFetcher) Fetch(ctx context.Context, request Request, destinationDir string) error {
	fileName := request.FileName()
	if fileName == "" {
		return errors.Errorf("cannot download block at height %d: %w", request.Height, ErrStateHashRequired)
	}

	destination := filepath.Join(destinationDir, fileName)
	temporary := destination + ".download"

	response, err := h.client.R().SetContext(ctx).SetOutput(temporary).Get(h.baseURL + "/" + fileName)
	if err != nil {
		_ = os.Remove(temporary)
		return errors.Errorf("failed to download %s: %v: %w", fileName, err, ErrFetchFailed)
	}
	if response.IsError() {
		_ = os.Remove(temporary)
		return errors.Errorf("failed to download %s: %s: %w", fileName, response.Status(), ErrFetchFailed)
	}

	if err = os.Rename(temporary, destination); err != nil {
		return errors.Errorf("failed to move %s into place: %v: %w", fileName, err, ErrFetchFailed)
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
