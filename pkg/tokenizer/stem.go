package tokenizer

import "strings"

const minStemLength = 2

// stemPlural strips regular plural endings. Words ending in "ss", "is"
// or "us" keep their final s since those are rarely plurals.
func stemPlural(word string) string {
	if len(word) < minStemLength {
		return word
	}
	if len(word) > minStemLength && strings.HasSuffix(word, "es") {
		return word[:len(word)-2]
	}
	if strings.HasSuffix(word, "s") {
		tail := word[len(word)-2:]
		if tail == "ss" || tail == "is" || tail == "us" {
			return word
		}
		return word[:len(word)-1]
	}
	return word
}

// stemSuffix strips "ing", "ed" and "ly" endings, undoing consonant
// doubling and restoring a silent e where the short stem calls for it.
func stemSuffix(word string) string {
	switch {
	case strings.HasSuffix(word, "ing") && len(word) > 3:
		w := removeDoubledConsonant(word[:len(word)-3])
		return restoreSilentE(w)
	case strings.HasSuffix(word, "ed") && len(word) > 2:
		w := removeDoubledConsonant(word[:len(word)-2])
		return restoreSilentE(w)
	case strings.HasSuffix(word, "ly") && len(word) > 2:
		return removeDoubledConsonant(word[:len(word)-2])
	}
	return word
}

func removeDoubledConsonant(stem string) string {
	if len(stem) < 2 {
		return stem
	}
	last := stem[len(stem)-1]
	prev := stem[len(stem)-2]
	if last != prev || !isConsonant(last) {
		return stem
	}
	// Undo doubling only for the consonant-vowel-consonant pattern,
	// keeping words that natively end doubled (class, buzz, fill).
	if len(stem) >= 3 && isVowel(stem[len(stem)-3]) &&
		last != 's' && last != 'z' && last != 'l' {
		return stem[:len(stem)-1]
	}
	return stem
}

func restoreSilentE(stem string) string {
	if len(stem) != 3 {
		return stem
	}
	last := stem[2]
	if isConsonant(last) && isVowel(stem[1]) &&
		(last == 'k' || last == 's' || last == 'd') {
		return stem + "e"
	}
	return stem
}

func isVowel(c byte) bool {
	switch c | 0x20 {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isConsonant(c byte) bool {
	lower := c | 0x20
	return lower >= 'a' && lower <= 'z' && !isVowel(c)
}
