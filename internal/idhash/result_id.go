// Package idhash computes identifiers of validation results and runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ComputeResultID computes a deterministic result_id using SHA256.
// Formula: SHA256(order_hash|model_version|start_date|end_date)
// Order hashes are compared case-insensitively; dates are truncated to UTC days.
// Returns hex-encoded hash (64 characters).
func ComputeResultID(
	orderHash string,
	modelVersion string,
	startDate time.Time,
	endDate time.Time,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(orderHash)),
		strings.TrimSpace(modelVersion),
		startDate.UTC().Format(dateLayout),
		endDate.UTC().Format(dateLayout),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// NewRunID returns a random run identifier shared by all results of one run.
func NewRunID() string {
	return uuid.NewString()
}
