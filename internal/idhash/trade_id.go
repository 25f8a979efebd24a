package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"granville-signal-lab/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(signal_id|config_digest|entry_date)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(signalID, configDigest string, entryDate domain.Date) string {
	data := fmt.Sprintf("%s|%s|%d", signalID, configDigest, int(entryDate))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
