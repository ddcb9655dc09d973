package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// TxIDKind identifies the encoding of a transaction identifier.
type TxIDKind int

// Transaction id encodings.
const (
	TxIDOpaque TxIDKind = iota // unrecognized, compared verbatim
	TxIDHex                    // 0x-prefixed or bare 64-char hex
	TxIDBase58                 // base58 encoded 32 or 64 byte hash/signature
)

// String returns the encoding name.
func (k TxIDKind) String() string {
	switch k {
	case TxIDHex:
		return "hex"
	case TxIDBase58:
		return "base58"
	default:
		return "opaque"
	}
}

// ErrUnrecognizedTxID is returned when a tx id has no known encoding.
var ErrUnrecognizedTxID = errors.New("unrecognized tx id encoding")

// ClassifyTxID detects the encoding of a transaction identifier.
func ClassifyTxID(id string) TxIDKind {
	id = strings.TrimSpace(id)
	if id == "" {
		return TxIDOpaque
	}
	if isHexID(id) {
		return TxIDHex
	}
	if raw, err := base58.Decode(id); err == nil && (len(raw) == 32 || len(raw) == 64) {
		return TxIDBase58
	}
	return TxIDOpaque
}

// CanonicalTxID converts a hex or base58 id to lower-case 0x hex.
// Returns ErrUnrecognizedTxID for opaque ids.
func CanonicalTxID(id string) (string, error) {
	id = strings.TrimSpace(id)
	switch ClassifyTxID(id) {
	case TxIDHex:
		return "0x" + strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")), nil
	case TxIDBase58:
		raw, err := base58.Decode(id)
		if err != nil {
			return "", fmt.Errorf("decode base58 tx id: %w", err)
		}
		return "0x" + hex.EncodeToString(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedTxID, id)
	}
}

func isHexID(id string) bool {
	body := id
	prefixed := strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X")
	if prefixed {
		body = id[2:]
	}
	if body == "" || len(body)%2 != 0 {
		return false
	}
	if !prefixed && len(body) != 64 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
