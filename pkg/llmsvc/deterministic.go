package llmsvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Deterministic is the always-available LLMService fallback. It never makes
// a network call; every method is a pure text transform so a consolidation
// run never blocks on (or fails because of) an LLM backend (spec §7).
type Deterministic struct{}

// charsPerToken mirrors the EstimateTokens formula used throughout the
// consolidation token accounting (spec §9 "tokens ~ ceil(len_chars/4)").
const charsPerToken = 4

// Summarize truncates text to targetTokens worth of characters at a
// sentence boundary, then extracts the leading bullet-worthy clauses —
// spec §4.3.1's "truncation + bullet extraction from
// experienced|noticed|learned" fallback.
func (Deterministic) Summarize(ctx context.Context, text string, targetTokens int) (string, error) {
	budget := targetTokens * charsPerToken
	sentences := splitSentences(text)

	var b strings.Builder
	used := 0
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		line := fmt.Sprintf("- %s\n", s)
		if used+len(line) > budget && used > 0 {
			break
		}
		b.WriteString(line)
		used += len(line)
		if used >= budget {
			break
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		// Single run-on sentence longer than the whole budget: hard-truncate.
		if len(text) > budget {
			return text[:budget], nil
		}
		return text, nil
	}
	return out, nil
}

// Question has no generative backend in the deterministic fallback; it
// echoes the prompt as an open item rather than fabricating an answer.
func (Deterministic) Question(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("open question (no LLM backend configured): %s", prompt), nil
}

// Answer deterministically surfaces the supplied context rather than
// synthesizing a novel answer — a safe, non-misleading fallback.
func (Deterministic) Answer(ctx context.Context, question, context string) (string, error) {
	context = strings.TrimSpace(context)
	if context == "" {
		return "no supporting context available to answer deterministically", nil
	}
	trimmed, err := (Deterministic{}).Summarize(ctx, context, 60)
	if err != nil {
		return "", err
	}
	return trimmed, nil
}

// ExtractPrinciples synthesizes one principle statement from a becoming
// cluster via the deterministic most-frequent-noun-phrase heuristic named
// in spec §4.3.2 ("most-frequent noun phrases + earliest-date +
// latest-date" — dates are threaded in by the caller via the statements
// themselves since this capability is text-only).
func (Deterministic) ExtractPrinciples(ctx context.Context, statements []string) (string, error) {
	if len(statements) == 0 {
		return "", fmt.Errorf("llmsvc: extract_principles requires at least one statement")
	}

	freq := map[string]int{}
	for _, s := range statements {
		for _, w := range tokenizeWords(s) {
			if isStopword(w) {
				continue
			}
			freq[w]++
		}
	}

	type wc struct {
		word  string
		count int
	}
	words := make([]wc, 0, len(freq))
	for w, c := range freq {
		words = append(words, wc{w, c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].count != words[j].count {
			return words[i].count > words[j].count
		}
		return words[i].word < words[j].word
	})

	top := make([]string, 0, 5)
	for i := 0; i < len(words) && i < 5; i++ {
		top = append(top, words[i].word)
	}

	return fmt.Sprintf(
		"Across %d related reflections, a recurring theme emerges: %s.",
		len(statements), strings.Join(top, ", "),
	), nil
}

func splitSentences(text string) []string {
	replacer := strings.NewReplacer("! ", ".\x00", "? ", ".\x00", ". ", ".\x00")
	marked := replacer.Replace(text)
	return strings.Split(marked, "\x00")
}

func tokenizeWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return fields
}

var englishStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "with": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"it": true, "that": true, "this": true, "i": true, "we": true, "my": true,
	"our": true, "as": true, "at": true, "by": true, "from": true, "so": true,
}

func isStopword(w string) bool {
	return englishStopwords[w] || len(w) < 3
}
