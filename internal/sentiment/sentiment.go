// Package sentiment labels free text as positive, negative or neutral.
// A small wellbeing lexicon stands in for a trained language model; the
// label travels with journal entries through storage and export.
package sentiment

import "strings"

const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

var positiveWords = wordSet(
	"happy", "glad", "joy", "joyful", "grateful", "thankful", "calm",
	"peaceful", "relaxed", "proud", "hopeful", "excited", "love", "loved",
	"great", "good", "wonderful", "amazing", "better", "energized",
	"accomplished", "confident", "content", "optimistic", "refreshed",
	"rested", "motivated", "strong", "progress",
)

var negativeWords = wordSet(
	"sad", "angry", "anxious", "worried", "stressed", "tired", "exhausted",
	"afraid", "scared", "lonely", "hopeless", "terrible", "awful", "bad",
	"worse", "miserable", "overwhelmed", "frustrated", "guilty", "ashamed",
	"depressed", "upset", "hurt", "crying", "worthless", "numb", "empty",
	"panic", "failure",
)

// Words that flip the polarity of the sentiment word right after them.
var negators = wordSet(
	"not", "no", "never", "hardly", "barely",
	"dont", "didnt", "cant", "wont", "isnt", "wasnt", "couldnt",
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Classify tallies lexicon hits and returns the dominant label. Text
// with no hits, or a tie, is Neutral.
func Classify(text string) string {
	words := tokenize(text)
	score := 0
	for i, w := range words {
		sign := 0
		if _, ok := positiveWords[w]; ok {
			sign = 1
		} else if _, ok := negativeWords[w]; ok {
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if i > 0 {
			if _, ok := negators[words[i-1]]; ok {
				sign = -sign
			}
		}
		score += sign
	}
	switch {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	default:
		return Neutral
	}
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}
