package recovery

import (
	"time"

	flag "github.com/spf13/pflag"
)

const (
	// CfgRecoveryExecutable defines the executable that retrieves missing blocks.
	CfgRecoveryExecutable = "recovery.exe"
	// CfgRecoveryBaseURL defines the URL the missing blocks are downloaded from if no executable is set.
	CfgRecoveryBaseURL = "recovery.baseURL"
	// CfgRecoveryRetryInterval defines the delay between two attempts to retrieve a block.
	CfgRecoveryRetryInterval = "recovery.retryInterval"
	// CfgRecoveryMaxRequestCount defines after how many attempts a request is dropped.
	CfgRecoveryMaxRequestCount = "recovery.maxRequestCount"
	// CfgRecoveryPollInterval defines how often the block above the best tip is requested (0 disables polling).
	CfgRecoveryPollInterval = "recovery.pollInterval"
	// CfgRecoveryTimeout defines the timeout of a single download.
	CfgRecoveryTimeout = "recovery.timeout"
)

func init() {
	flag.String(CfgRecoveryExecutable, "", "the executable that retrieves missing blocks")
	flag.String(CfgRecoveryBaseURL, "", "the URL the missing blocks are downloaded from")
	flag.Duration(CfgRecoveryRetryInterval, 10*time.Second, "the delay between two attempts to retrieve a block")
	flag.Int(CfgRecoveryMaxRequestCount, 500, "after how many attempts a request is dropped")
	flag.Duration(CfgRecoveryPollInterval, 0, "how often the block above the best tip is requested")
	flag.Duration(CfgRecoveryTimeout, time.Minute, "the timeout of a single download")
}
