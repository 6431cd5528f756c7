package summary_engine

import "unicode/utf8"

// SplitChunks cuts text into consecutive pieces of at most size characters.
// Pieces never split a rune; only the last one may be shorter.
func SplitChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	chunks := make([]string, 0, (utf8.RuneCountInString(text)+size-1)/size)
	start, n := 0, 0
	for i := range text {
		if n == size {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, text[start:])
}

// charLen is the length of s in characters.
func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
