package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"granville-signal-lab/internal/domain"
)

// ComputeSignalID computes a deterministic signal_id using SHA256.
// Formula: SHA256(ticker|signal_date|rule_label)
// Returns hex-encoded hash (64 characters).
func ComputeSignalID(ticker string, signalDate domain.Date, ruleLabel string) string {
	data := fmt.Sprintf("%s|%d|%s", ticker, int(signalDate), ruleLabel)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
