package model

import (
	"strings"

	"risparmio/internal/core"
)

// KeyPrefix is the conventional prefix carried by trained artifact keys
// (the training pipeline names its targets potential_savings_<category>).
const KeyPrefix = "potential_savings_"

// keyTable is the explicit bidirectional mapping between artifact keys
// and display categories. Both the bare lowercased category name and the
// prefixed form are accepted. Built once; lookups never munge strings.
var keyTable = buildKeyTable()

func buildKeyTable() map[string]core.Category {
	table := make(map[string]core.Category, len(core.Categories())*2)
	for _, c := range core.Categories() {
		lower := strings.ToLower(string(c))
		table[lower] = c
		table[KeyPrefix+lower] = c
	}
	return table
}

// CategoryForKey resolves an artifact key to its display category.
func CategoryForKey(key string) (core.Category, bool) {
	c, ok := keyTable[key]
	return c, ok
}

// KeyFor returns the canonical artifact key for a category.
func KeyFor(c core.Category) string {
	return KeyPrefix + strings.ToLower(string(c))
}
