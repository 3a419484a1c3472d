package query

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// patternCache holds compiled like/ilike patterns keyed by the folded
// pattern text.
var patternCache sync.Map // map[string]*regexp.Regexp

// compilePattern turns a SQL-style pattern into a regular expression. '%'
// matches any run of characters; every other character is literal. The
// expression is unanchored, so "lis" matches "Lisbon" under ILike.
func compilePattern(pattern string) *regexp.Regexp {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	b.WriteString("(?s)")
	for _, r := range pattern {
		if r == '%' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}

	re := regexp.MustCompile(b.String())
	patternCache.Store(pattern, re)
	return re
}

// matchPattern applies a like/ilike pattern to a field value. Null never
// matches; other scalars are coerced to text first.
func matchPattern(v any, pattern string, fold bool) bool {
	if v == nil {
		return false
	}
	text := record.String(v)
	if fold {
		// Casers are stateful; use a fresh one per call.
		text = cases.Fold().String(text)
		pattern = cases.Fold().String(pattern)
	}
	return compilePattern(pattern).MatchString(text)
}
