package services

import (
	"context"
	"fmt"
	"strings"
)

// ChatbotService answers common banking questions with keyword-matched
// template responses, optionally personalized from the caller's data.
type ChatbotService struct {
	accounts *AccountService
	credit   *CreditService
}

// NewChatbotService creates a new chatbot service
func NewChatbotService(accounts *AccountService, credit *CreditService) *ChatbotService {
	return &ChatbotService{
		accounts: accounts,
		credit:   credit,
	}
}

// ChatMessageInput represents a chatbot prompt
type ChatMessageInput struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// ChatReply represents a chatbot answer
type ChatReply struct {
	Reply    string `json:"reply"`
	Category string `json:"category"`
}

// rule maps trigger keywords to a canned response category
type rule struct {
	category string
	keywords []string
	reply    string
}

var chatRules = []rule{
	{
		category: "emergency",
		keywords: []string{"emergency", "urgent", "stolen", "fraud", "hacked"},
		reply:    "If you suspect fraud or your account is compromised, freeze your account from the settings page and contact support immediately.",
	},
	{
		category: "score",
		keywords: []string{"credit score", "score", "rating", "creditworthiness"},
		reply:    "Your credit score is computed from your savings balance, account age, transaction activity and repayment history. Repaying loans on time is the biggest boost.",
	},
	{
		category: "loans",
		keywords: []string{"loan", "borrow", "apply", "interest rate"},
		reply:    "You can apply for a loan from the Loans page. Pick an amount and a repayment period; interest is simple interest over the term and an admin reviews every application.",
	},
	{
		category: "calculator",
		keywords: []string{"calculate", "calculator", "monthly payment", "installment"},
		reply:    "Use the loan calculator to estimate your monthly installment. It amortizes the amount over your chosen term at the quoted rate.",
	},
	{
		category: "balance",
		keywords: []string{"balance", "how much", "funds"},
		reply:    "Your current balance is shown on your dashboard and updates with every deposit, withdrawal and repayment.",
	},
	{
		category: "savings",
		keywords: []string{"save", "saving", "deposit", "withdraw"},
		reply:    "Deposits and withdrawals are instant from the Savings page. Withdrawals are limited by your balance plus any overdraft allowance.",
	},
	{
		category: "debt",
		keywords: []string{"debt", "repay", "repayment", "pay back", "owe"},
		reply:    "Open the Pay Loan page to see active loans with a remaining balance. Payments are capped at what you still owe, so you can never overpay.",
	},
	{
		category: "help",
		keywords: []string{"help", "support", "how do i", "what can you"},
		reply:    "I can answer questions about savings, loans, repayments, your balance and your credit score. Ask me anything about those.",
	},
}

// Respond matches the first rule whose keyword appears in the message.
// Balance and score questions get personalized when a user is known.
func (s *ChatbotService) Respond(ctx context.Context, userID string, input *ChatMessageInput) *ChatReply {
	message := strings.ToLower(input.Message)

	for _, r := range chatRules {
		for _, kw := range r.keywords {
			if !strings.Contains(message, kw) {
				continue
			}
			reply := r.reply
			if userID != "" {
				reply = s.personalize(ctx, userID, r.category, reply)
			}
			return &ChatReply{Reply: reply, Category: r.category}
		}
	}

	return &ChatReply{
		Reply:    "I'm not sure about that. Try asking about your balance, savings, loans, repayments or credit score.",
		Category: "fallback",
	}
}

// personalize prepends the caller's live figure where it helps
func (s *ChatbotService) personalize(ctx context.Context, userID, category, reply string) string {
	switch category {
	case "balance":
		accounts, err := s.accounts.ListByUser(ctx, userID)
		if err != nil || len(accounts) == 0 {
			return reply
		}
		var total float64
		for _, a := range accounts {
			total += a.Balance
		}
		return fmt.Sprintf("Your total balance is %.2f %s. ", total, accounts[0].Currency) + reply
	case "score":
		score, err := s.credit.ScoreForUser(ctx, userID)
		if err != nil {
			return reply
		}
		return fmt.Sprintf("Your current score is %d (%s). ", score.Score, score.Rating) + reply
	}
	return reply
}
