package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ProposalIndex is a governance item index that is either numeric
// (referenda, bounties) or a hex-prefixed hash (tips, motions by hash).
// The original form is preserved verbatim: numeric indices marshal as JSON
// numbers, hash indices as strings, and the stored text never changes shape.
type ProposalIndex struct {
	raw string
}

// NewNumericIndex builds an index from an integer value.
func NewNumericIndex(n uint64) ProposalIndex {
	return ProposalIndex{raw: fmt.Sprintf("%d", n)}
}

// NewHashIndex builds an index from a 0x-prefixed hash string.
func NewHashIndex(h string) ProposalIndex {
	return ProposalIndex{raw: h}
}

// ParseProposalIndex accepts the two supported textual forms.
func ParseProposalIndex(s string) (ProposalIndex, error) {
	if s == "" {
		return ProposalIndex{}, fmt.Errorf("proposal index is empty")
	}
	if isDecimal(s) || isHexHash(s) {
		return ProposalIndex{raw: s}, nil
	}
	return ProposalIndex{}, fmt.Errorf("proposal index %q is neither numeric nor a 0x hash", s)
}

func (p ProposalIndex) IsZero() bool { return p.raw == "" }

// IsHash reports whether the index is a hex-prefixed hash.
func (p ProposalIndex) IsHash() bool { return isHexHash(p.raw) }

func (p ProposalIndex) String() string { return p.raw }

func (p ProposalIndex) MarshalJSON() ([]byte, error) {
	if p.raw == "" {
		return []byte("null"), nil
	}
	if isDecimal(p.raw) {
		// Verbatim digits are valid JSON number syntax.
		return []byte(p.raw), nil
	}
	return json.Marshal(p.raw)
}

func (p *ProposalIndex) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = ProposalIndex{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := ParseProposalIndex(str)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	if !isDecimal(s) {
		return fmt.Errorf("proposal index %s is not an integer", s)
	}
	*p = ProposalIndex{raw: s}
	return nil
}

// Value implements driver.Valuer; both forms persist as text.
func (p ProposalIndex) Value() (driver.Value, error) {
	return p.raw, nil
}

// Scan implements sql.Scanner.
func (p *ProposalIndex) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = ProposalIndex{}
		return nil
	case string:
		*p = ProposalIndex{raw: v}
		return nil
	case []byte:
		*p = ProposalIndex{raw: string(v)}
		return nil
	case int64:
		*p = ProposalIndex{raw: fmt.Sprintf("%d", v)}
		return nil
	}
	return fmt.Errorf("cannot scan %T into ProposalIndex", value)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isHexHash(s string) bool {
	if len(s) < 3 || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	for i := 2; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
