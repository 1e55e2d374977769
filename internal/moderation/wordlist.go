package moderation

import (
	"regexp"
	"strings"
)

// BannedWords is the local fallback list used when the external classifier is
// unavailable or misses. Matching is whole-word, case-insensitive.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
}

// Wordlist holds the compiled banned-word patterns.
type Wordlist struct {
	patterns []*regexp.Regexp
	words    []string
}

// NewWordlist compiles patterns for the given words, defaulting to
// BannedWords when none are supplied.
func NewWordlist(words ...string) *Wordlist {
	if len(words) == 0 {
		words = BannedWords
	}
	wl := &Wordlist{
		patterns: make([]*regexp.Regexp, 0, len(words)),
		words:    make([]string, 0, len(words)),
	}
	for _, word := range words {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err != nil {
			continue
		}
		wl.patterns = append(wl.patterns, re)
		wl.words = append(wl.words, strings.ToLower(word))
	}
	return wl
}

// ContainsBanned reports whether the text matches any banned word and which
// ones matched.
func (wl *Wordlist) ContainsBanned(text string) (bool, []string) {
	if text == "" {
		return false, nil
	}
	var matched []string
	for i, re := range wl.patterns {
		if re.MatchString(text) {
			matched = append(matched, wl.words[i])
		}
	}
	return len(matched) > 0, matched
}
