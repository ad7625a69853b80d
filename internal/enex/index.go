package enex

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const excerptMaxLength = 120

const compactTimestampLayout = "20060102T150405Z"

var (
	compactTimestampPattern = regexp.MustCompile(`^\d{8}T\d{6}Z$`)
	markupPattern           = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern       = regexp.MustCompile(`\s+`)
)

// SearchText builds the lowercase haystack used for substring search. The
// body markup is deliberately kept: tag tokens are acceptable noise.
func SearchText(title, contentHTML string, tags []string) string {
	return strings.ToLower(title + " " + contentHTML + " " + strings.Join(tags, " "))
}

func stripMarkup(value string) string {
	plain := markupPattern.ReplaceAllString(value, " ")
	plain = whitespacePattern.ReplaceAllString(plain, " ")
	return strings.TrimSpace(plain)
}

// Excerpt strips markup from the body and truncates it to 120 characters,
// appending an ellipsis when truncated.
func Excerpt(contentHTML string) string {
	plain := stripMarkup(contentHTML)
	runes := []rune(plain)
	if len(runes) <= excerptMaxLength {
		return plain
	}
	return strings.TrimSpace(string(runes[:excerptMaxLength])) + "..."
}

// SortKey derives the recency sort key in Unix milliseconds from the note's
// best available timestamp, preferring updated over created. The compact
// export format is tried first, then general parsing; unparseable or absent
// timestamps sort as 0.
func SortKey(createdAt, updatedAt string) int64 {
	value := updatedAt
	if value == "" {
		value = createdAt
	}
	if value == "" {
		return 0
	}
	if compactTimestampPattern.MatchString(value) {
		if parsed, err := time.Parse(compactTimestampLayout, value); err == nil {
			return parsed.UnixMilli()
		}
	}
	if parsed, err := dateparse.ParseIn(value, time.UTC); err == nil {
		return parsed.UnixMilli()
	}
	return 0
}
