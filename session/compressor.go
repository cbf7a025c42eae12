package session

import (
	"strings"
	"unicode"
)

// Compressed is the structured extraction of a verbose text
type Compressed struct {
	Entities         []string `json:"entities,omitempty"`
	Numbers          []string `json:"numbers,omitempty"`
	KeyPhrases       []string `json:"key_phrases,omitempty"`
	OriginalLength   int      `json:"original_length"`
	CompressedLength int      `json:"compressed_length"`
}

// Compressor extracts high-information content from verbose text and
// prunes the filler: entities, numeric facts, and key phrases survive
// compaction even when the prose does not.
type Compressor struct {
	// phrases maps a trigger word to the key phrase it signals
	phrases map[string]string
}

// NewCompressor creates a compressor with default key phrase triggers
func NewCompressor() *Compressor {
	return &Compressor{
		phrases: map[string]string{
			"return": "return_related",
			"order":  "order_related",
			"refund": "refund_related",
		},
	}
}

// Compress extracts entities (capitalized words), numbers, and key
// phrases from text. Production systems would use an LLM with a
// structured extraction prompt.
func (c *Compressor) Compress(text string) Compressed {
	words := strings.Fields(text)
	lower := strings.ToLower(text)

	entitySeen := make(map[string]bool)
	var entities []string
	var numbers []string
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?'\"")
		if trimmed == "" {
			continue
		}
		runes := []rune(trimmed)
		if unicode.IsUpper(runes[0]) && !entitySeen[trimmed] {
			entitySeen[trimmed] = true
			entities = append(entities, trimmed)
		}
		if containsDigit(trimmed) {
			numbers = append(numbers, trimmed)
		}
	}
	if len(entities) > 10 {
		entities = entities[:10]
	}
	if len(numbers) > 5 {
		numbers = numbers[:5]
	}

	var keyPhrases []string
	for trigger, phrase := range c.phrases {
		if strings.Contains(lower, trigger) {
			keyPhrases = append(keyPhrases, phrase)
		}
	}

	return Compressed{
		Entities:         entities,
		Numbers:          numbers,
		KeyPhrases:       keyPhrases,
		OriginalLength:   len(words),
		CompressedLength: len(entities) + len(numbers) + len(keyPhrases),
	}
}

func containsDigit(word string) bool {
	for _, r := range word {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
