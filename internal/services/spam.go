package services

import (
	"regexp"
	"strings"
	"unicode"
)

// Phrases that only ever show up in junk sent through public forms. Words a
// traveller could use about a destination ("casino", "nightlife") stay out.
var baseSpamWords = []string{
	"viagra",
	"cialis",
	"crypto investment",
	"forex signals",
	"seo services",
	"backlinks",
	"payday loan",
	"bitcoin doubling",
}

// MaxLinksPerMessage is the number of URLs a form message may carry.
const MaxLinksPerMessage = 2

var (
	linkRegex  = regexp.MustCompile(`(?i)(https?://|www\.)`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

var obfuscation = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"а", "a", // Cyrillic
	"е", "e", // Cyrillic
	"о", "o", // Cyrillic
)

// CleanText lowercases text, undoes common character substitutions, turns
// everything that is not a letter into a space and collapses repeats.
func CleanText(text string) string {
	cleaned := obfuscation.Replace(strings.ToLower(text))

	var builder strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	cleaned = collapseRepeats(builder.String())
	return strings.TrimSpace(spaceRegex.ReplaceAllString(cleaned, " "))
}

// minRepeatRun is the shortest run of one letter treated as padding. Doubled
// letters are ordinary spelling ("coffee", "hello").
const minRepeatRun = 3

// collapseRepeats reduces runs of three or more of the same letter to one
// ("caaasino" -> "casino").
func collapseRepeats(text string) string {
	runes := []rune(text)
	var result strings.Builder

	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		n := j - i
		if unicode.IsLetter(runes[i]) && n >= minRepeatRun {
			n = 1
		}
		for k := 0; k < n; k++ {
			result.WriteRune(runes[i])
		}
		i = j
	}
	return result.String()
}

// ContainsConfirmedWord reports which base words appear in cleanedText.
// Single words must match a whole word ("backlinksbuilder" does not match
// "backlinks"); phrases match as substrings.
func ContainsConfirmedWord(cleanedText string, baseWords []string) (bool, []string) {
	var confirmed []string
	words := strings.Fields(cleanedText)

	for _, base := range baseWords {
		base = collapseRepeats(base)
		if !strings.Contains(cleanedText, base) {
			continue
		}
		if len(strings.Fields(base)) > 1 {
			confirmed = append(confirmed, base)
			continue
		}
		for _, w := range words {
			if w == base {
				confirmed = append(confirmed, base)
				break
			}
		}
	}
	return len(confirmed) > 0, confirmed
}

// LooksLikeSpam flags form text that is link-stuffed or uses known spam
// phrases.
func LooksLikeSpam(text string) bool {
	if len(linkRegex.FindAllStringIndex(text, -1)) > MaxLinksPerMessage {
		return true
	}
	found, _ := ContainsConfirmedWord(CleanText(text), baseSpamWords)
	return found
}
