package model

import (
	"encoding/json"
	"fmt"
)

// Category names of the default snapshot layout.
const (
	CategoryPreciousMetals = "precious_metals"
	CategoryStockIndices   = "stock_indices"
	CategoryBondYields     = "bond_yields"
	CategoryHousing        = "housing"
	CategoryFX             = "fx"
)

// TimestampKey is reserved in both category blocks and snapshots.
const TimestampKey = "timestamp"

// CategoryBlock groups the quotes of one asset class. It serializes as a flat object
// keyed by asset plus "timestamp".
type CategoryBlock struct {
	Quotes    map[string]Quote
	Timestamp string
}

func (b CategoryBlock) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Quotes)+1)
	for key, q := range b.Quotes {
		out[key] = q
	}
	out[TimestampKey] = b.Timestamp
	return json.Marshal(out)
}

func (b *CategoryBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Quotes = make(map[string]Quote, len(raw))
	for key, value := range raw {
		if key == TimestampKey {
			if err := json.Unmarshal(value, &b.Timestamp); err != nil {
				return fmt.Errorf("category timestamp: %w", err)
			}
			continue
		}
		var q Quote
		if err := json.Unmarshal(value, &q); err != nil {
			return fmt.Errorf("quote %q: %w", key, err)
		}
		b.Quotes[key] = q
	}
	return nil
}

// Snapshot is one fetch cycle's complete result, keyed by category name.
type Snapshot struct {
	Categories map[string]CategoryBlock
	Timestamp  string
}

// Quote looks up a single asset's quote.
func (s *Snapshot) Quote(category, asset string) (Quote, bool) {
	if s == nil {
		return Quote{}, false
	}
	block, ok := s.Categories[category]
	if !ok {
		return Quote{}, false
	}
	q, ok := block.Quotes[asset]
	return q, ok
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Categories)+1)
	for name, block := range s.Categories {
		out[name] = block
	}
	out[TimestampKey] = s.Timestamp
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Categories = make(map[string]CategoryBlock, len(raw))
	for key, value := range raw {
		if key == TimestampKey {
			if err := json.Unmarshal(value, &s.Timestamp); err != nil {
				return fmt.Errorf("snapshot timestamp: %w", err)
			}
			continue
		}
		var block CategoryBlock
		if err := json.Unmarshal(value, &block); err != nil {
			return fmt.Errorf("category %q: %w", key, err)
		}
		s.Categories[key] = block
	}
	return nil
}
