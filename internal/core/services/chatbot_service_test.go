package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// anonymous callers never reach the personalization path, so the
// service can run without its dependencies
func newBareChatbot() *ChatbotService {
	return NewChatbotService(nil, nil)
}

func TestChatbotMatchesCategories(t *testing.T) {
	bot := newBareChatbot()
	ctx := context.Background()

	cases := []struct {
		message  string
		category string
	}{
		{"How do I improve my credit score?", "score"},
		{"I want to apply for a loan", "loans"},
		{"calculate my monthly payment please", "calculator"},
		{"what is my balance", "balance"},
		{"how can I deposit money", "savings"},
		{"when do I pay back what I owe", "debt"},
		{"help", "help"},
		{"my card was stolen!", "emergency"},
	}

	for _, tc := range cases {
		reply := bot.Respond(ctx, "", &ChatMessageInput{Message: tc.message})
		assert.Equal(t, tc.category, reply.Category, "message: %s", tc.message)
		assert.NotEmpty(t, reply.Reply)
	}
}

func TestChatbotMatchingIsCaseInsensitive(t *testing.T) {
	bot := newBareChatbot()

	reply := bot.Respond(context.Background(), "", &ChatMessageInput{Message: "WHAT IS MY BALANCE?"})
	assert.Equal(t, "balance", reply.Category)
}

func TestChatbotEmergencyWinsOverOtherKeywords(t *testing.T) {
	bot := newBareChatbot()

	// Contains both "loan" and "fraud"; the emergency rule is first
	reply := bot.Respond(context.Background(), "", &ChatMessageInput{Message: "fraud on my loan account"})
	assert.Equal(t, "emergency", reply.Category)
}

func TestChatbotFallback(t *testing.T) {
	bot := newBareChatbot()

	reply := bot.Respond(context.Background(), "", &ChatMessageInput{Message: "tell me a joke"})
	assert.Equal(t, "fallback", reply.Category)
	assert.NotEmpty(t, reply.Reply)
}
