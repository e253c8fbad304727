package domain

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EncodeLedger serializes a ledger into its persisted JSON shape.
func EncodeLedger(l Ledger) ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("domain: encode ledger: %w", err)
	}
	return data, nil
}

// DecodeLedger parses persisted history. Unknown mood keys are dropped; a
// missing mood or undecodable payload yields ErrMalformedLedger.
func DecodeLedger(data []byte) (Ledger, error) {
	var raw map[string]*MoodHistory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
	}

	l := make(Ledger, len(moods))
	for key, h := range raw {
		m := Mood(key)
		if !m.IsValid() {
			continue
		}
		l[m] = h
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}
