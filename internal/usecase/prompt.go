package usecase

import (
	"fmt"
	"strings"

	"shop-assistant/internal/domain"
)

func buildPlanMessages(enquiry string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildPlanSystemPrompt()},
		{Role: domain.RoleUser, Content: buildPlanUserPrompt(enquiry)},
	}
}

func buildAnswerMessages(enquiry string, fn FunctionName, result string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildAnswerSystemPrompt()},
		{Role: domain.RoleUser, Content: buildAnswerUserPrompt(enquiry, fn, result)},
	}
}

func buildPlanSystemPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are a friendly shopping assistant for an online store.",
		"",
		"Behavior Rules:",
		"1) Answer only the current customer enquiry.",
		"2) Call a function when its result is needed to answer; otherwise answer directly.",
		"3) Never invent products or exchange rates.",
	}, "\n")
}

func buildPlanUserPrompt(enquiry string) string {
	return strings.Join([]string{
		"Customer enquiry:",
		strings.TrimSpace(enquiry),
		"",
		"Available functions:",
		fmt.Sprintf("- %s(query): find up to two catalog products matching a free-text query.", FunctionSearchProducts),
		fmt.Sprintf("- %s(amount, fromCurrency, toCurrency): convert an amount between two ISO 4217 currency codes.", FunctionConvertCurrencies),
	}, "\n")
}

func buildAnswerSystemPrompt() string {
	return "You are a friendly shopping assistant for an online store. Keep answers concise and helpful."
}

func buildAnswerUserPrompt(enquiry string, fn FunctionName, result string) string {
	return strings.Join([]string{
		"Customer enquiry:",
		strings.TrimSpace(enquiry),
		"",
		fmt.Sprintf("You called the function %s and it returned:", fn),
		result,
		"",
		"Using this result, write the final answer to the customer.",
	}, "\n")
}
