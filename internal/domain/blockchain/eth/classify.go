package eth

import (
	"strings"

	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
)

// Ethereum nodes do not return error codes in their JSON RPC, so the kind of a
// send error can only be told from its message. The lists below cover geth,
// erigon, nethermind and besu wordings.
var (
	alreadyBroadcastMessages = []string{
		"already known",
		"known transaction",
		"alreadyknown",
		"already imported",
		"transaction already exists",
	}

	rejectedMessages = []string{
		"insufficient funds",
		"execution reverted",
		"invalid sender",
		"intrinsic gas too low",
		"exceeds block gas limit",
	}
)

// ClassifySendError tells how a node refused a transaction. Unknown errors
// are transient.
func ClassifySendError(err error) types.ChainErrorKind {
	if err == nil {
		return types.ChainErrorTransient
	}

	msg := strings.ToLower(err.Error())
	for _, m := range alreadyBroadcastMessages {
		if strings.Contains(msg, m) {
			return types.ChainErrorAlreadyBroadcast
		}
	}

	for _, m := range rejectedMessages {
		if strings.Contains(msg, m) {
			return types.ChainErrorRejected
		}
	}

	return types.ChainErrorTransient
}
