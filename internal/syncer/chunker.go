package syncer

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the largest chunk, in characters, sent for
// embedding in one piece.
const DefaultMaxChunkSize = 8192

// Chunk splits content into pieces no longer than maxSize. Content
// that fits is returned as a single chunk. Longer content is split on
// sentence boundaries and repacked greedily, so chunks stay close to
// the limit without cutting sentences in half. A single sentence
// longer than the limit is hard-split at the limit, so no chunk ever
// exceeds what the embedding model accepts.
func Chunk(content string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if len(content) <= maxSize {
		return []string{content}
	}

	sentences := splitSentences(content)

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if len(sentence) > maxSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, splitFixed(sentence, maxSize)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence) > maxSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences cuts text after sentence-ending punctuation followed
// by whitespace. The trailing whitespace stays attached to the
// sentence so rejoining the pieces reproduces the original text.
// Fullwidth enders terminate a sentence without trailing whitespace,
// since CJK prose carries none.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		// Swallow any run of closing punctuation and whitespace.
		j := i + 1
		for j < len(runes) && isSentenceEnd(runes[j]) {
			j++
		}
		if j < len(runes) && !isSpace(runes[j]) && !isFullWidthEnd(runes[j-1]) {
			i = j - 1
			continue
		}
		for j < len(runes) && isSpace(runes[j]) {
			j++
		}
		sentences = append(sentences, string(runes[start:j]))
		start = j
		i = j - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}

// splitFixed slices text into pieces of at most maxSize bytes on rune
// boundaries, for text with no usable sentence breaks.
func splitFixed(text string, maxSize int) []string {
	var pieces []string
	var current strings.Builder

	for _, r := range text {
		if current.Len() > 0 && current.Len()+utf8.RuneLen(r) > maxSize {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	default:
		return false
	}
}

func isFullWidthEnd(r rune) bool {
	switch r {
	case '。', '！', '？':
		return true
	default:
		return false
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
