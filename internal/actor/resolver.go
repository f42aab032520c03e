// Package actor canonicalizes chain addresses into a single scoring identity.
//
// Governance events arrive with whatever address encoding the upstream chain
// uses: SS58 with any network prefix, or a 0x hex account. All encodings of
// the same account must map to one ActorID so the score ledger never splits
// an actor across formats.
package actor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ActorID is the canonical actor identity: lowercase 0x-hex of the
// underlying public key (32 bytes) or EVM account (20 bytes).
type ActorID string

// ss58Prefix is the hash preimage tag defined by the SS58 registry.
var ss58Prefix = []byte("SS58PRE")

// Resolve normalizes a raw chain address to its canonical ActorID.
// It is pure and deterministic; the same input always yields the same
// identity, and any valid SS58 re-encoding of one key yields the same
// identity as its hex form.
func Resolve(raw string) (ActorID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty address")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return resolveHex(s)
	}
	return resolveSS58(s)
}

func resolveHex(s string) (ActorID, error) {
	body := s[2:]
	b, err := hex.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	switch len(b) {
	case 20, 32:
		return ActorID("0x" + strings.ToLower(body)), nil
	}
	return "", fmt.Errorf("hex address %q has unsupported length %d", s, len(b))
}

func resolveSS58(s string) (ActorID, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("invalid ss58 address %q: %w", s, err)
	}
	// Layout: prefix (1 or 2 bytes) || account id || 2-byte checksum.
	// First bytes 128–255 are reserved in the ss58 registry.
	var prefixLen int
	switch {
	case len(data) >= 1 && data[0] < 64:
		prefixLen = 1
	case len(data) >= 2 && data[0] < 128:
		prefixLen = 2
	case len(data) >= 1 && data[0] >= 128:
		return "", fmt.Errorf("invalid ss58 address %q: reserved prefix byte %d", s, data[0])
	default:
		return "", fmt.Errorf("invalid ss58 address %q: too short", s)
	}
	if len(data) != prefixLen+32+2 {
		return "", fmt.Errorf("invalid ss58 address %q: unexpected payload length %d", s, len(data))
	}

	body := data[:len(data)-2]
	checksum := data[len(data)-2:]
	h, err := blake2b.New512(nil)
	if err != nil {
		return "", err
	}
	h.Write(ss58Prefix)
	h.Write(body)
	sum := h.Sum(nil)
	if sum[0] != checksum[0] || sum[1] != checksum[1] {
		return "", fmt.Errorf("invalid ss58 address %q: checksum mismatch", s)
	}

	account := data[prefixLen : prefixLen+32]
	return ActorID("0x" + hex.EncodeToString(account)), nil
}

// Encode re-encodes a 32-byte canonical ActorID as SS58 for the given
// network prefix. Used by read APIs that report chain-native addresses.
func Encode(id ActorID, networkPrefix uint16) (string, error) {
	raw := strings.TrimPrefix(string(id), "0x")
	account, err := hex.DecodeString(raw)
	if err != nil || len(account) != 32 {
		return "", fmt.Errorf("actor id %q is not a 32-byte key", id)
	}

	var body []byte
	if networkPrefix < 64 {
		body = append(body, byte(networkPrefix))
	} else {
		// Two-byte prefix scheme from the SS58 registry.
		first := 0x40 | byte((networkPrefix>>2)&0x3f)
		second := byte((networkPrefix>>8)&0x3f) | byte((networkPrefix&0x03)<<6)
		body = append(body, first, second)
	}
	body = append(body, account...)

	h, err := blake2b.New512(nil)
	if err != nil {
		return "", err
	}
	h.Write(ss58Prefix)
	h.Write(body)
	sum := h.Sum(nil)

	return base58.Encode(append(body, sum[0], sum[1])), nil
}
