package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase word tokens, dropping stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
	minLen    int
}

// NewTokenizer creates a Tokenizer with English and Portuguese stopwords.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		minLen:    2,
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < t.minLen {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate LLM token count.
// Average word is about 1.3 tokens.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text on anything that is not a letter, digit or underscore.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		// en
		"an", "and", "are", "as", "at", "be", "by", "for", "from", "has",
		"he", "in", "is", "it", "its", "of", "on", "that", "the", "to",
		"was", "were", "will", "with", "this", "have", "had", "but", "not",
		"you", "your", "we", "our", "they", "their", "she", "her", "his",
		"if", "or", "so", "no", "can", "do", "does", "did", "been", "which",
		"who", "what", "when", "where", "why", "how", "all", "some", "than",
		// pt
		"de", "da", "do", "das", "dos", "em", "na", "no", "nas", "nos",
		"um", "uma", "os", "as", "que", "para", "por", "com", "se", "ao",
		"aos", "ou", "mais", "mas", "foi", "ser", "sua", "seu", "qual",
		"quais", "como", "onde", "quando", "não", "é", "são", "pelo", "pela",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
