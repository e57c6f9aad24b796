// Package chat is the rule-based support chatbot. Crisis phrases win over
// everything else; otherwise input is classified into a topic and answered
// from a template pool.
package chat

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	logx "mindwell/pkg/logx"
)

var crisisKeywords = []string{
	"suicide", "kill myself", "end my life", "want to die",
	"don't want to live", "hopeless", "can't go on", "self harm",
	"hurt myself", "no reason to live", "better off dead",
}

const crisisResponse = "I notice you're expressing some difficult thoughts. " +
	"If you're in crisis, please reach out for immediate help:\n\n" +
	"- National Suicide Prevention Lifeline: 1-800-273-8255\n" +
	"- Crisis Text Line: Text HOME to 741741\n" +
	"- Emergency Services: 911\n\n" +
	"You're not alone, and help is available. Would you like me to provide more resources?"

// Topic is the classified conversation type of a message.
type Topic string

const (
	TopicCrisis     Topic = "crisis"
	TopicAnxiety    Topic = "anxiety"
	TopicDepression Topic = "depression"
	TopicPositive   Topic = "positive"
	TopicMeditation Topic = "meditation"
	TopicGoals      Topic = "goals"
	TopicJournaling Topic = "journaling"
	TopicCBT        Topic = "cbt"
	TopicGreeting   Topic = "greeting"
	TopicFarewell   Topic = "farewell"
	TopicThanks     Topic = "thanks"
	TopicHelp       Topic = "help"
	TopicGeneral    Topic = "general"
)

// topicRules are checked in order; the first match wins.
var topicRules = []struct {
	topic Topic
	subs  []string
}{
	{TopicAnxiety, []string{"anxious", "anxiety", "worried", "stress"}},
	{TopicDepression, []string{"sad", "depress", "unhappy", "down"}},
	{TopicPositive, []string{"happy", "joy", "good", "great"}},
	{TopicMeditation, []string{"meditat", "breath", "calm", "relax"}},
	{TopicGoals, []string{"goal", "habit", "track", "progress"}},
	{TopicJournaling, []string{"journal", "write", "diary", "reflect"}},
	{TopicCBT, []string{"thought", "cbt", "reframe", "negative"}},
	{TopicGreeting, []string{"hello", "hi ", "hey", "greetings"}},
	{TopicFarewell, []string{"bye", "goodbye", "see you", "exit"}},
	{TopicThanks, []string{"thank"}},
	{TopicHelp, []string{"help", "what can you do", "features"}},
}

var templates = map[Topic][]string{
	TopicAnxiety: {
		"I understand you're feeling anxious. Would you like to try a quick breathing exercise?",
		"Anxiety can be challenging. Have you tried grounding techniques like the 5-4-3-2-1 method?",
		"When you're feeling anxious, it can help to focus on what's in your control. Would you like to talk about that?",
		"I'm here for you during this anxious time. Would a guided meditation help right now?",
	},
	TopicDepression: {
		"I'm sorry you're feeling down. Would you like to talk about what's been happening?",
		"Depression can make everything feel harder. What's one small thing you could do for yourself today?",
		"Remember that your feelings are valid, and it's okay to not be okay. Would journaling help process these emotions?",
		"When you're feeling low, sometimes gentle movement like a short walk can help shift your energy a bit.",
	},
	TopicPositive: {
		"I'm glad you're feeling good! What's contributing to your positive mood today?",
		"That's wonderful to hear! Celebrating these good moments is important. Would you like to journal about it?",
		"It's great that you're feeling positive. How can we build on this momentum?",
		"I'm happy you're doing well! Positive emotions are worth savoring and reflecting on.",
	},
	TopicMeditation: {
		"Meditation is a powerful practice. Would you like to try a short guided meditation now?",
		"Taking time to breathe and center yourself is so valuable. Our breathing exercise tool might help.",
		"Mindfulness can help bring you back to the present moment. Would you like to explore some techniques?",
		"Even a few minutes of meditation can make a difference. Would you like to set a reminder for regular practice?",
	},
	TopicGoals: {
		"Setting meaningful goals can help provide direction. What kind of goal are you thinking about?",
		"Tracking your progress can be motivating. Would you like to set up a new goal in the tracker?",
		"Breaking down larger goals into smaller steps can make them more manageable. Would that be helpful?",
		"Celebrating small wins along the way is important for maintaining motivation. How do you acknowledge your progress?",
	},
	TopicJournaling: {
		"Journaling is a great way to process thoughts and feelings. Would you like a prompt to get started?",
		"Writing can help provide clarity. Our guided journaling tool has several themes you might find helpful.",
		"Regular journaling can reveal patterns in your thoughts and emotions. Would you like to start a new entry?",
		"Even a few minutes of reflective writing can be beneficial. What would you like to explore in your journal today?",
	},
	TopicCBT: {
		"Cognitive reframing can help shift negative thought patterns. Would you like to work through a thought record?",
		"Identifying automatic thoughts is the first step in changing them. What thought would you like to examine?",
		"Looking for evidence that challenges negative thoughts can be eye-opening. Shall we try that approach?",
		"CBT techniques can help create more balanced thinking. Would you like to explore some strategies?",
	},
	TopicGreeting: {
		"Hello! How are you feeling today?",
		"Hi there! What brings you here today?",
		"Greetings! How can I support your mental wellbeing today?",
		"Hello! I'm here to help with your mental wellness journey. What would you like to focus on?",
	},
	TopicFarewell: {
		"Take care! Remember to be kind to yourself.",
		"Goodbye for now. I'll be here when you need support.",
		"Until next time! Remember that self-care is important.",
		"Farewell! I hope our conversation was helpful.",
	},
	TopicThanks: {
		"You're welcome! I'm glad I could help.",
		"It's my pleasure to support you on your wellness journey.",
		"I'm here for you anytime you need to talk.",
		"You're very welcome. Taking care of your mental health is important.",
	},
	TopicHelp: {
		"I can help with mood tracking, guided journaling, CBT thought reframing, meditation guidance, and more. What would you like to explore?",
		"There are several tools here: mood tracking, journaling, thought reframing, meditation guides, goal setting, and crisis support. How can I assist you today?",
		"I'm here to support your mental wellness journey. You can track moods, journal, practice CBT techniques, meditate, set goals, or just chat. What interests you?",
		"I can guide you through various wellness activities including mood tracking, journaling, CBT exercises, meditation, and goal setting. Where would you like to start?",
	},
	TopicGeneral: {
		"I'm here to support you. Would you like to explore any specific wellness tools?",
		"How are you feeling today? We could track that in your mood journal.",
		"Is there something specific on your mind that you'd like to discuss or work through?",
		"Would you like to try journaling, meditation, or thought reframing today?",
	},
}

// Bot classifies messages and answers from the template pools. Replies
// are rate limited per user so a looping client can't spam the endpoint.
type Bot struct {
	log      logx.Logger
	patterns []*regexp.Regexp
	pick     func(n int) int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	perUser  rate.Limit
	burst    int
}

func New(log logx.Logger) *Bot {
	if log.IsZero() {
		log = logx.Nop()
	}
	b := &Bot{
		log:      log,
		pick:     rand.Intn,
		limiters: make(map[int64]*rate.Limiter),
		perUser:  rate.Limit(1),
		burst:    5,
	}
	for _, kw := range crisisKeywords {
		b.patterns = append(b.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return b
}

// ErrRateLimited is returned when a user exceeds the reply rate.
var ErrRateLimited = errRateLimited{}

type errRateLimited struct{}

func (errRateLimited) Error() string { return "chat: rate limited" }

// Reply answers a user message. Crisis content always gets through,
// regardless of the rate limit.
func (b *Bot) Reply(userID int64, input string) (Topic, string, error) {
	if b.isCrisis(input) {
		b.log.Warn("crisis keywords detected", logx.Int64("user_id", userID))
		return TopicCrisis, crisisResponse, nil
	}
	if !b.allow(userID) {
		return "", "", ErrRateLimited
	}
	topic := Classify(input)
	pool := templates[topic]
	return topic, pool[b.pick(len(pool))], nil
}

func (b *Bot) isCrisis(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	for _, p := range b.patterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

func (b *Bot) allow(userID int64) bool {
	b.mu.Lock()
	lim, ok := b.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(b.perUser, b.burst)
		b.limiters[userID] = lim
	}
	b.mu.Unlock()
	return lim.Allow()
}

// Classify maps a message to its topic by substring rules.
func Classify(input string) Topic {
	input = strings.ToLower(input)
	for _, rule := range topicRules {
		for _, sub := range rule.subs {
			if strings.Contains(input, sub) {
				return rule.topic
			}
		}
	}
	return TopicGeneral
}
