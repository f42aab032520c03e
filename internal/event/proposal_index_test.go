package event

import (
	"encoding/json"
	"testing"
)

func TestProposalIndexJSONRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string // raw JSON
		out  string // expected re-marshalled JSON
	}{
		{name: "numeric stays numeric", in: `42`, out: `42`},
		{name: "large numeric", in: `18446744073709551615`, out: `18446744073709551615`},
		{name: "hash stays string", in: `"0xdeadbeef"`, out: `"0xdeadbeef"`},
		{name: "hash case preserved", in: `"0xDeadBEEF01"`, out: `"0xDeadBEEF01"`},
		{name: "numeric string stays numeric form", in: `"7"`, out: `7`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p ProposalIndex
			if err := json.Unmarshal([]byte(tc.in), &p); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.in, err)
			}
			got, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tc.out {
				t.Errorf("round trip %s: got %s, want %s", tc.in, got, tc.out)
			}
		})
	}
}

func TestProposalIndexRejectsGarbage(t *testing.T) {
	for _, in := range []string{`"not-an-index"`, `"0x"`, `"0xzz"`, `3.14`, `-1`} {
		var p ProposalIndex
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("unmarshal %s: expected error, got %q", in, p)
		}
	}
}

func TestProposalIndexScanPreservesForm(t *testing.T) {
	var p ProposalIndex
	if err := p.Scan("0xabc123"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !p.IsHash() || p.String() != "0xabc123" {
		t.Errorf("scanned hash mangled: %q", p)
	}

	var n ProposalIndex
	if err := n.Scan("42"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n.IsHash() || n.String() != "42" {
		t.Errorf("scanned numeric mangled: %q", n)
	}
	v, err := n.Value()
	if err != nil || v != "42" {
		t.Errorf("value: got %v, %v", v, err)
	}
}

func TestChainEventValidate(t *testing.T) {
	ok := ChainEvent{
		Kind:          KindVoted,
		Network:       "polkadot",
		ActorAddress:  "0xabc",
		ProposalIndex: NewNumericIndex(1),
	}
	ok.OccurredAt = ok.OccurredAt.AddDate(2024, 0, 0)
	if err := ok.Validate(); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}

	bad := ok
	bad.Kind = "something_else"
	if err := bad.Validate(); err == nil {
		t.Error("unknown kind accepted")
	}

	bad = ok
	bad.Network = ""
	if err := bad.Validate(); err == nil {
		t.Error("missing network accepted")
	}

	bad = ok
	bad.ProposalIndex = ProposalIndex{}
	if err := bad.Validate(); err == nil {
		t.Error("missing proposal index accepted")
	}
}
