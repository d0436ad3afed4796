// Package safety implements the policy checks that run before any answer is
// produced: topic exclusion (off-domain messages get a fixed redirect) and
// health-risk detection (risky messages get a warning banner but still get an
// answer). Both checks are pure substring scans over immutable phrase tables.
package safety

import "strings"

// RiskKind classifies a detected health risk.
type RiskKind string

const (
	// RiskMedical covers physical symptoms: fever, pain, injury.
	RiskMedical RiskKind = "medical"

	// RiskMental covers psychological crisis signals.
	RiskMental RiskKind = "mental"
)

// Exclusion is the outcome of the off-domain check.
type Exclusion struct {
	Excluded bool
	Matched  string
	Message  string
}

// Risk is the outcome of the health-risk check.
type Risk struct {
	HasRisk bool
	Kind    RiskKind
	Warning string
	Matched string
}

// RiskTopic is a phrase set sharing a warning banner and a risk kind.
type RiskTopic struct {
	Kind    RiskKind
	Phrases []string
	Warning string
}

// Lexicon holds the phrase tables for both checks. It is loaded once at
// startup and never mutated, so it is safe for unsynchronized concurrent
// reads.
type Lexicon struct {
	// ExclusionPhrases mark messages outside the health domain.
	ExclusionPhrases []string

	// ExclusionMessage is the fixed redirect returned on an exclusion match.
	ExclusionMessage string

	// RiskTopics are scanned in order; the first matching topic wins.
	// Medical topics must precede mental topics.
	RiskTopics []RiskTopic
}

// Classifier runs the exclusion and risk checks against a Lexicon.
type Classifier struct {
	lex *Lexicon
}

// NewClassifier creates a classifier over the given lexicon.
func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// CheckExcluded scans the message for exclusion phrases. The first match
// short-circuits with the fixed redirect message.
func (c *Classifier) CheckExcluded(text string) Exclusion {
	for _, phrase := range c.lex.ExclusionPhrases {
		if strings.Contains(text, phrase) {
			return Exclusion{
				Excluded: true,
				Matched:  phrase,
				Message:  c.lex.ExclusionMessage,
			}
		}
	}
	return Exclusion{}
}

// CheckRisk scans the risk topics in lexicon order and returns the first
// matching topic's banner. A match never blocks the pipeline; the caller
// prepends the warning to whatever answer is produced.
func (c *Classifier) CheckRisk(text string) Risk {
	for _, topic := range c.lex.RiskTopics {
		for _, phrase := range topic.Phrases {
			if strings.Contains(text, phrase) {
				return Risk{
					HasRisk: true,
					Kind:    topic.Kind,
					Warning: topic.Warning,
					Matched: phrase,
				}
			}
		}
	}
	return Risk{}
}
