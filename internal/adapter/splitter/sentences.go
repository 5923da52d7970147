package splitter

import (
	"regexp"
	"strings"
)

// RegexSentences is the default sentence-segmentation capability: a
// terminator-based splitter that keeps trailing text without a terminator
// as its own sentence.
type RegexSentences struct {
	re *regexp.Regexp
}

func NewRegexSentences() *RegexSentences {
	return &RegexSentences{
		re: regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`),
	}
}

func (r *RegexSentences) Sentences(text string) []string {
	matches := r.re.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m != "" {
			sentences = append(sentences, m)
		}
	}
	return sentences
}
