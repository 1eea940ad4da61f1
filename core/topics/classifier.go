package topics

import (
	"regexp"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
)

// Rule assigns a topic when any of its patterns matches.
type Rule struct {
	Topic    model.Topic
	Patterns []*regexp.Regexp
}

// NewRule compiles patterns into a rule. It panics on an invalid pattern.
func NewRule(topic model.Topic, patterns ...string) Rule {
	rule := Rule{Topic: topic}
	for _, p := range patterns {
		rule.Patterns = append(rule.Patterns, regexp.MustCompile(p))
	}
	return rule
}

// Classifier maps text to topic labels using an ordered rule table.
// Patterns are matched against normalized lowercase text.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules, kept in order.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// DefaultClassifier returns a classifier over DefaultRules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// Topics lists the labels the classifier can assign, in table order.
func (c *Classifier) Topics() []model.Topic {
	topics := make([]model.Topic, 0, len(c.rules))
	for _, rule := range c.rules {
		topics = append(topics, rule.Topic)
	}
	return topics
}

// Classify returns the topics of title and body in table order.
// A topic is added once, on its first matching pattern.
func (c *Classifier) Classify(title string, body string) []model.Topic {
	folded := text.Fold(strings.Join([]string{title, body}, " "))
	if len(folded) == 0 {
		return nil
	}

	var topics []model.Topic
	for _, rule := range c.rules {
		if matchesAny(rule.Patterns, folded) {
			topics = append(topics, rule.Topic)
		}
	}
	return topics
}

// Has reports whether s carries topic.
func (c *Classifier) Has(s string, topic model.Topic) bool {
	folded := text.Fold(s)
	for _, rule := range c.rules {
		if rule.Topic == topic {
			return matchesAny(rule.Patterns, folded)
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
