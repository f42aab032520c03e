package actor

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Well-known dev account ("Alice"): the same 32-byte key encoded for the
// generic substrate prefix (42) and the polkadot prefix (0).
const (
	alicePubKey   = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceGeneric  = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	alicePolkadot = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
)

func TestResolveCollapsesEncodings(t *testing.T) {
	want := ActorID(alicePubKey)

	for _, raw := range []string{aliceGeneric, alicePolkadot, alicePubKey, "0x" + strings.ToUpper(alicePubKey[2:])} {
		got, err := Resolve(raw)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("Resolve(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	a, err := Resolve(aliceGeneric)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Resolve(aliceGeneric)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same input resolved to %s and %s", a, b)
	}
}

func TestResolveEVMAccount(t *testing.T) {
	got, err := Resolve("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	if err != nil {
		t.Fatalf("Resolve eth address: %v", err)
	}
	if got != ActorID("0xab5801a7d398351b8be11c439e05c5b3259aec9b") {
		t.Errorf("eth address not lowercased: %s", got)
	}
}

func TestResolveRejectsPoison(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not an address",
		"0x1234",       // wrong byte length
		"0xzzzz",       // not hex
		"5GrwvaEF5zXb", // truncated ss58
		aliceGeneric[:len(aliceGeneric)-1] + "X", // corrupted tail
	}
	for _, raw := range cases {
		if id, err := Resolve(raw); err == nil {
			t.Errorf("Resolve(%q) accepted as %s, want error", raw, id)
		}
	}
}

func TestResolveRejectsReservedPrefix(t *testing.T) {
	// First bytes 128–255 are reserved in the ss58 registry; a payload
	// using one must fail even when its checksum is internally consistent.
	body := append([]byte{0xee, 0x00}, make([]byte, 32)...)
	h, err := blake2b.New512(nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Write([]byte("SS58PRE"))
	h.Write(body)
	sum := h.Sum(nil)
	addr := base58.Encode(append(body, sum[0], sum[1]))

	if id, err := Resolve(addr); err == nil {
		t.Errorf("reserved prefix byte accepted as %s", id)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	id := ActorID(alicePubKey)

	enc, err := Encode(id, 42)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc != aliceGeneric {
		t.Errorf("Encode(prefix 42) = %s, want %s", enc, aliceGeneric)
	}

	// Any prefix must survive a round trip back to the canonical id.
	for _, prefix := range []uint16{0, 2, 42, 137, 2025} {
		enc, err := Encode(id, prefix)
		if err != nil {
			t.Fatalf("Encode(prefix %d): %v", prefix, err)
		}
		back, err := Resolve(enc)
		if err != nil {
			t.Fatalf("Resolve(Encode(prefix %d)): %v", prefix, err)
		}
		if back != id {
			t.Errorf("round trip via prefix %d: got %s, want %s", prefix, back, id)
		}
	}
}

func TestEncodeRejectsShortID(t *testing.T) {
	if _, err := Encode(ActorID("0xab5801a7d398351b8be11c439e05c5b3259aec9b"), 42); err == nil {
		t.Error("20-byte account encoded as ss58, want error")
	}
}
