package precomputed

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const fileExtension = ".json"

// FileName returns the name under which the report of a block is stored: <network>-<height>-<state_hash>.json.
func FileName(network string, height uint32, stateHash StateHash) string {
	return fmt.Sprintf("%s-%d-%s%s", network, height, stateHash, fileExtension)
}

// ParseFileName extracts network, height and state hash from the name (or path) of a precomputed block file.
func ParseFileName(path string) (network string, height uint32, stateHash StateHash, err error) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileExtension) {
		return "", 0, "", errors.Errorf("%s lacks %s extension: %w", name, fileExtension, ErrMalformedFileName)
	}

	parts := strings.Split(strings.TrimSuffix(name, fileExtension), "-")
	if len(parts) < 3 {
		return "", 0, "", errors.Errorf("%s: %w", name, ErrMalformedFileName)
	}

	// the network name itself may contain dashes
	hashPart := parts[len(parts)-1]
	heightPart := parts[len(parts)-2]
	network = strings.Join(parts[:len(parts)-2], "-")

	parsedHeight, err := strconv.ParseUint(heightPart, 10, 32)
	if err != nil {
		return "", 0, "", errors.Errorf("%s has invalid height (%v): %w", name, err, ErrMalformedFileName)
	}

	if stateHash, err = StateHashFromBase58(hashPart); err != nil {
		return "", 0, "", errors.Errorf("%s: %v: %w", name, err, ErrMalformedFileName)
	}

	return network, uint32(parsedHeight), stateHash, nil
}

// IsBlockFile returns true if the path names a precomputed block file.
func IsBlockFile(path string) bool {
	_, _, _, err := ParseFileName(path)

	return err == nil
}
