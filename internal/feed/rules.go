package feed

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
)

// Rule assigns a category and icon to repositories whose lower-cased name or
// description contains any of its keywords.
type Rule struct {
	Keywords   []string
	CategoryID string
	Icon       string
}

// DefaultRules is evaluated top to bottom; the first matching rule wins.
var DefaultRules = []Rule{
	{
		Keywords: []string{
			"llm", "gpt", "openai", "claude", "copilot",
			" ai ", " ai-", "-ai ", "-ai-",
			" agent ", " agents ", " agent-", "-agent ", "-agents ",
		},
		CategoryID: "ai",
		Icon:       "🤖",
	},
	{
		Keywords:   []string{"ci/cd", "cicd", "action", "deploy", "workflow", "pipeline", "docker"},
		CategoryID: "dev",
		Icon:       "🚀",
	},
	{
		Keywords:   []string{"doc", "blog", "note", "tutorial", "guide"},
		CategoryID: "docs",
		Icon:       "📚",
	},
	{
		Keywords:   []string{"vue", "react", "website", "frontend", "nuxt", "vite", "html", "css"},
		CategoryID: "web",
		Icon:       "🌐",
	},
	{
		Keywords:   []string{"cli", "tool", "script", "util", "plugin", "extension"},
		CategoryID: "tools",
		Icon:       "🛠️",
	},
}

// DefaultFallback applies when no rule matches.
var DefaultFallback = Rule{CategoryID: "github", Icon: "📦"}

// Classifier evaluates an ordered rule table with a single Aho-Corasick pass.
type Classifier struct {
	rules    []Rule
	fallback Rule

	ac          *ahocorasick.Automaton
	patternRule []int // pattern index -> lowest rule index using it
}

// NewClassifier compiles rules. Keywords are matched case-insensitively.
func NewClassifier(rules []Rule, fallback Rule) (*Classifier, error) {
	c := &Classifier{
		rules:    rules,
		fallback: fallback,
	}

	var patterns []string
	index := make(map[string]int)
	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if _, exists := index[kw]; exists {
				// An earlier rule already owns this keyword.
				continue
			}
			index[kw] = len(patterns)
			patterns = append(patterns, kw)
			c.patternRule = append(c.patternRule, i)
		}
	}

	if len(patterns) == 0 {
		return c, nil
	}

	// Overlapping search needs every match, so keep the standard match kind.
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	c.ac = automaton
	return c, nil
}

// DefaultClassifier compiles DefaultRules.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules, DefaultFallback)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the category and icon for a repository.
func (c *Classifier) Classify(name, description string) (categoryID, icon string) {
	if c.ac == nil {
		return c.fallback.CategoryID, c.fallback.Icon
	}

	// Pad with spaces so keywords like " ai " also match at either end.
	haystack := []byte(" " + normalize(name+" "+description) + " ")

	best := len(c.rules)
	for _, m := range c.ac.FindAllOverlapping(haystack) {
		if m.PatternID < 0 || m.PatternID >= len(c.patternRule) {
			continue
		}
		if r := c.patternRule[m.PatternID]; r < best {
			best = r
		}
	}

	if best == len(c.rules) {
		return c.fallback.CategoryID, c.fallback.Icon
	}
	return c.rules[best].CategoryID, c.rules[best].Icon
}

// normalize lower-cases s and turns punctuation other than '-' and '/' into
// spaces, so space-bounded keywords see word edges like "(ai)" or "ai.".
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-', r == '/':
			return r
		default:
			return ' '
		}
	}, s)
}
