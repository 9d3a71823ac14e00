// Package ai produces an editorial summary of a completed transcript.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// SummaryResult is the structured summary returned to the caller.
type SummaryResult struct {
	Title     string   `json:"title"`
	Summary   []string `json:"summary"`
	KeyQuotes []string `json:"key_quotes"`
}

const systemPrompt = `Ты — редактор службы новостей. Тебе дают расшифровку ` +
	`интервью или синхрона с таймкодами и именами спикеров. Верни JSON с полями: ` +
	`"title" (рабочий заголовок сюжета), "summary" (3-5 тезисов, о чём говорили), ` +
	`"key_quotes" (до 3 дословных цитат, пригодных для эфира). Отвечай только JSON.`

// SummarizeTranscript sends the transcript text to OpenAI and parses the
// structured summary.
func SummarizeTranscript(ctx context.Context, apiKey, transcript string) (*SummaryResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	client := openai.NewClient(apiKey)
	log.Printf("[AI] summarizing transcript, %d characters", len(transcript))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	content := resp.Choices[0].Message.Content
	var result SummaryResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// some models still wrap JSON in a markdown fence
		if err := json.Unmarshal([]byte(extractJSONFromMarkdown(content)), &result); err != nil {
			return nil, fmt.Errorf("failed to parse OpenAI response as JSON: %w", err)
		}
	}
	return &result, nil
}

func extractJSONFromMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "```"); start >= 0 {
		content = content[start+3:]
		content = strings.TrimPrefix(content, "json")
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}
