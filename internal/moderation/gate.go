package moderation

import (
	"context"
	"log/slog"
	"strings"
)

// Source identifies what produced a verdict.
type Source string

const (
	SourceOpenAI       Source = "openai"
	SourceBannedWords  Source = "banned_words"
	SourceErrorDefault Source = "error_default"
)

// Verdict is the gate's decision for one piece of text. SourceErrorDefault
// means the classifier was unreachable and the text was NOT examined — callers
// must treat it as "defer", not "clean".
type Verdict struct {
	Flagged    bool
	Categories []string
	Source     Source
}

// Err reports whether the verdict is the classifier-unavailable default.
func (v Verdict) Err() bool {
	return v.Source == SourceErrorDefault
}

// Classifier is the external moderation dependency of the Gate.
type Classifier interface {
	Check(ctx context.Context, text string) (Screening, error)
}

// Gate classifies user content through the external classifier with a local
// banned-word second check. Classify never returns an error: failures are
// encoded as an error-default verdict and logged for manual review.
type Gate struct {
	classifier Classifier
	wordlist   *Wordlist
	logger     *slog.Logger
}

func NewGate(classifier Classifier, wordlist *Wordlist, logger *slog.Logger) *Gate {
	return &Gate{classifier: classifier, wordlist: wordlist, logger: logger}
}

// Classify runs the external classifier on the trimmed text, then the local
// wordlist when the classifier did not flag it.
func (g *Gate) Classify(ctx context.Context, text string) Verdict {
	text = strings.TrimSpace(text)

	screening, err := g.classifier.Check(ctx, text)
	if err != nil {
		// Defer moderation rather than blocking; the item stays pending and
		// is retried on the next sweep.
		g.logger.Warn("moderation classifier unavailable", "error", err)
		return Verdict{Flagged: false, Source: SourceErrorDefault}
	}

	if screening.Flagged {
		return Verdict{Flagged: true, Categories: screening.Categories, Source: SourceOpenAI}
	}

	if banned, matched := g.wordlist.ContainsBanned(text); banned {
		g.logger.Info("content flagged by banned words check", "matched", strings.Join(matched, ","))
		return Verdict{Flagged: true, Categories: matched, Source: SourceBannedWords}
	}

	return Verdict{Flagged: false, Source: SourceOpenAI}
}

// CheckName runs only the local wordlist. Used synchronously at submission
// time for name fields; a match rejects the request outright.
func (g *Gate) CheckName(name string) (bool, []string) {
	return g.wordlist.ContainsBanned(name)
}
