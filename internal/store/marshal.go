package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/rules"
)

// encodeJSON renders v without HTML escaping so suit symbols and names
// survive unchanged.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalCards stores cards as short names ("10h", "As").
func marshalCards(cards []card.Card) (string, error) {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Short()
	}
	s, err := encodeJSON(names)
	if err != nil {
		return "", fmt.Errorf("marshal cards: %w", err)
	}
	return s, nil
}

func unmarshalCards(data string) ([]card.Card, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal cards: %w", err)
	}
	cards, err := card.ParseAll(names)
	if err != nil {
		return nil, fmt.Errorf("unmarshal cards: %w", err)
	}
	return cards, nil
}

func marshalKinds(kinds []rules.Kind) (string, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	s, err := encodeJSON(names)
	if err != nil {
		return "", fmt.Errorf("marshal rule kinds: %w", err)
	}
	return s, nil
}

func unmarshalKinds(data string) ([]rules.Kind, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal rule kinds: %w", err)
	}
	kinds := make([]rules.Kind, len(names))
	for i, n := range names {
		k, ok := rules.ParseKind(n)
		if !ok {
			return nil, fmt.Errorf("unmarshal rule kinds: unknown kind %q", n)
		}
		kinds[i] = k
	}
	return kinds, nil
}
