package services

import (
	"regexp"
	"strconv"
	"strings"

	"risparmio/internal/core"
)

// ParsedTransaction is the best-effort result of free-text parsing.
// Amount stays in major units; callers convert when storing.
type ParsedTransaction struct {
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
	Category    core.Category `json:"category"`
}

// parsePatterns are tried in order; the first match wins. They cover
// "item amount category" with an optional rs/₹ marker before or after
// the number ("Samosa 30rs food", "Movie ₹350 entertainment").
var parsePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(.+?)\s+(\d+)(?:rs|₹)?\s+(.+)$`),
	regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:\.\d+)?)(?:rs|₹)?\s+(.+)$`),
	regexp.MustCompile(`(?i)^(.+?)\s+(?:rs|₹)?(\d+(?:\.\d+)?)\s+(.+)$`),
}

// keywordCategories maps free-text category hints to the fixed set by
// substring containment. The list is ordered and the first matching
// keyword wins; overlaps are resolved by position here, not by
// specificity. Anything unmatched falls back to Miscellaneous.
var keywordCategories = []struct {
	keyword  string
	category core.Category
}{
	{"food", core.EatingOut},
	{"grocery", core.Groceries},
	{"groceries", core.Groceries},
	{"transport", core.Transport},
	{"travel", core.Transport},
	{"entertainment", core.Entertainment},
	{"movie", core.Entertainment},
	{"utility", core.Utilities},
	{"utilities", core.Utilities},
	{"bill", core.Utilities},
	{"medical", core.Healthcare},
	{"doctor", core.Healthcare},
	{"health", core.Healthcare},
	{"education", core.Education},
	{"school", core.Education},
	{"book", core.Education},
	{"misc", core.Miscellaneous},
	{"other", core.Miscellaneous},
}

// ParseTransactionText attempts to read "item amount category" out of
// free text. The second return value is false when no pattern matches;
// that is a normal outcome for unparseable input, not an error.
func ParseTransactionText(text string) (ParsedTransaction, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedTransaction{}, false
	}

	var groups []string
	for _, pattern := range parsePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			groups = m
			break
		}
	}
	if groups == nil {
		return ParsedTransaction{}, false
	}

	amount, err := strconv.ParseFloat(groups[2], 64)
	if err != nil {
		return ParsedTransaction{}, false
	}

	return ParsedTransaction{
		Description: strings.TrimSpace(groups[1]),
		Amount:      amount,
		Category:    matchCategory(groups[3]),
	}, true
}

func matchCategory(hint string) core.Category {
	lower := strings.ToLower(hint)
	for _, kc := range keywordCategories {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}
	return core.Miscellaneous
}
