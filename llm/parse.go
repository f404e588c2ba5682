package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// The upstream model is instructed to emit JSON but is not guaranteed to
// comply exactly: it may wrap output in prose or markdown fences, emit a
// trailing comma, or lead with a byte-order mark. Parse repairs exactly
// that enumerable surface and nothing more.

// Pre-compiled patterns for JSON extraction from model responses.
var (
	// fencedBlockPattern matches content inside a markdown code fence.
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// errUnparseable is returned when every repair stage fails.
var errUnparseable = errors.New("unparseable model output")

// Parse coerces raw model output into a validated payload.
//
// When expectJSON is false the trimmed raw text is returned verbatim and
// Parse never fails. When expectJSON is true it attempts, in order:
// a strict parse of the trimmed text; stripping a fenced code block;
// a repair pass (trailing commas before }/], leading BOM); and a scan for
// the first balanced {...} or [...] span. The first stage that yields valid
// JSON wins. Parse is a pure function of its inputs.
func Parse(raw string, expectJSON bool) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !expectJSON {
		return trimmed, nil
	}

	for _, candidate := range parseCandidates(trimmed) {
		if candidate != "" && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", NewParseError(errUnparseable)
}

// parseCandidates returns repair-stage candidates in attempt order.
func parseCandidates(trimmed string) []string {
	candidates := []string{trimmed}

	fenced := stripFence(trimmed)
	if fenced != "" && fenced != trimmed {
		candidates = append(candidates, fenced)
	}

	for _, c := range []string{trimmed, fenced} {
		if c == "" {
			continue
		}
		if repaired := repairJSON(c); repaired != c {
			candidates = append(candidates, repaired)
		}
	}

	if span := balancedSpan(trimmed); span != "" && span != trimmed {
		candidates = append(candidates, span, repairJSON(span))
	}

	return candidates
}

// stripFence extracts the content of a markdown code fence, if present.
func stripFence(s string) string {
	if matches := fencedBlockPattern.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// repairJSON removes a leading byte-order mark and trailing commas
// before a closing brace or bracket.
func repairJSON(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

// balancedSpan returns the first balanced {...} or [...] span in s,
// respecting string literals and escapes. Returns "" if none is found.
func balancedSpan(s string) string {
	start := -1
	var open, closing byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				closing = '}'
			} else {
				closing = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// Brackets inside strings don't affect depth
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
