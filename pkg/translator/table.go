package translator

import (
	"fmt"
	"sort"
)

// Table is an immutable key to rule mapping. Build one with NewTable.
type Table struct {
	rules map[Key]Rule
}

// NewTable validates entries and builds a table. Any invalid or duplicate
// entry fails the whole table.
func NewTable(entries []Entry) (*Table, error) {
	rules := make(map[Key]Rule, len(entries))
	for i, e := range entries {
		if err := e.Key.Validate(); err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i+1, err)
		}
		if err := e.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("mapping %d (%s): %w", i+1, e.Key, err)
		}
		if _, exists := rules[e.Key]; exists {
			return nil, fmt.Errorf("mapping %d: %w: %s", i+1, ErrDuplicateKey, e.Key)
		}
		rules[e.Key] = e.Rule
	}
	return &Table{rules: rules}, nil
}

// Lookup returns the rule bound to key
func (t *Table) Lookup(key Key) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	r, ok := t.rules[key]
	return r, ok
}

// Len returns the number of entries
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Entries returns a copy of the table ordered by kind, channel and number
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	entries := make([]Entry, 0, len(t.rules))
	for k, r := range t.rules {
		entries = append(entries, Entry{Key: k, Rule: r})
	}
	sort.Slice(entries, func(i, j int) bool {
		return keyLess(entries[i].Key, entries[j].Key)
	})
	return entries
}

func keyLess(a, b Key) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Channel != b.Channel {
		return a.Channel < b.Channel
	}
	return a.Number < b.Number
}
