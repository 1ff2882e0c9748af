package course

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/skillpath/core/internal/config"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

const generationMaxTokens = 4000

// ContentProvider generates each level of the course hierarchy.
type ContentProvider interface {
	GenerateOutline(ctx context.Context, targetRole string, currentSkills, missingSkills []string) (*Outline, error)
	GenerateWeekDays(ctx context.Context, targetRole string, week WeekStub) ([]DayStub, error)
	GenerateDayDetail(ctx context.Context, targetRole string, day DayStub) (*DayContent, error)
}

// modelProvider implements ContentProvider over the configured AI
// providers, with a per-stage provider/model assignment.
type modelProvider struct {
	ai config.AIConfig
}

// NewModelProvider builds the default ContentProvider from config. It
// fails fast when no enabled provider exists at all.
func NewModelProvider(ai config.AIConfig) (ContentProvider, error) {
	if ai.Provider("") == nil {
		return nil, errors.New("no enabled AI provider configured")
	}
	return &modelProvider{ai: ai}, nil
}

func (p *modelProvider) GenerateOutline(ctx context.Context, targetRole string, currentSkills, missingSkills []string) (*Outline, error) {
	systemPrompt, prompt := buildOutlinePrompt(targetRole, currentSkills, missingSkills)
	raw, err := p.chat(ctx, p.ai.OutlineModel, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseOutline(raw, targetRole)
}

func (p *modelProvider) GenerateWeekDays(ctx context.Context, targetRole string, week WeekStub) ([]DayStub, error) {
	systemPrompt, prompt := buildWeekPrompt(targetRole, week)
	raw, err := p.chat(ctx, p.ai.WeekModel, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseWeekDays(raw)
}

func (p *modelProvider) GenerateDayDetail(ctx context.Context, targetRole string, day DayStub) (*DayContent, error) {
	systemPrompt, prompt := buildDayPrompt(targetRole, day)
	raw, err := p.chat(ctx, p.ai.DayModel, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseDayContent(raw)
}

func (p *modelProvider) chat(ctx context.Context, assignment *config.ModelAssignment, systemPrompt, prompt string) (string, error) {
	provider := p.selectProvider(assignment)
	if provider == nil {
		return "", errors.New("no enabled AI provider configured")
	}

	if isOpenAICompatibleProviderType(provider.Type) {
		return callOpenAICompatibleChatCompletions(ctx, provider, systemPrompt, prompt)
	}

	model, err := buildLanguageModel(provider)
	if err != nil {
		return "", err
	}
	resp, err := jetai.GenerateText(
		ctx,
		buildPromptMessages(systemPrompt, prompt),
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(generationMaxTokens),
	)
	if err != nil {
		return "", err
	}
	return extractTextFromResponse(resp)
}

// selectProvider resolves an assignment to an enabled provider, applying
// the assignment's model override; with no assignment the first enabled
// provider wins.
func (p *modelProvider) selectProvider(assignment *config.ModelAssignment) *config.AIProvider {
	var providerID, overrideModel string
	if assignment != nil {
		providerID = strings.TrimSpace(assignment.ProviderID)
		overrideModel = strings.TrimSpace(assignment.Model)
	}

	provider := p.ai.Provider(providerID)
	if provider == nil && providerID != "" {
		provider = p.ai.Provider("")
	}
	if provider == nil {
		return nil
	}
	if overrideModel != "" {
		provider.DefaultModel = overrideModel
	}
	return provider
}

func isOpenAICompatibleProviderType(raw string) bool {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t == "openai-compatible" || t == "openaicompatible"
}

func isAnthropicProviderType(raw string) bool {
	return strings.ToLower(strings.TrimSpace(raw)) == "anthropic"
}

func buildLanguageModel(provider *config.AIProvider) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(provider.APIKey)
	if apiKey == "" {
		return nil, errors.New("AI provider api key is empty")
	}

	modelID := strings.TrimSpace(provider.DefaultModel)
	endpoint := strings.TrimSpace(provider.Endpoint)

	if isAnthropicProviderType(provider.Type) {
		if modelID == "" {
			modelID = "claude-haiku-4-5-20251001"
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil
	}

	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)
	return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
}

func buildPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractTextFromResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from AI")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from AI")
	}
	return text, nil
}

// callOpenAICompatibleChatCompletions talks to any OpenAI-compatible
// chat-completions endpoint (Groq, LM Studio, vLLM and friends).
func callOpenAICompatibleChatCompletions(ctx context.Context, provider *config.AIProvider, systemPrompt, prompt string) (string, error) {
	if strings.TrimSpace(provider.APIKey) == "" {
		return "", errors.New("AI provider api key is empty")
	}

	endpoint := normalizeOpenAICompatibleEndpoint(provider.Endpoint)
	model := strings.TrimSpace(provider.DefaultModel)
	if model == "" {
		model = "gpt-4o-mini"
	}

	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": systemPrompt,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": prompt,
	})

	body, _ := json.Marshal(map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": generationMaxTokens,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(provider.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("openai-compatible error: %s", strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("openai-compatible error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("empty response from AI")
	}
	return result.Choices[0].Message.Content, nil
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeOpenAICompatibleEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.openai.com"
	}

	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimSuffix(strings.TrimRight(base, "/"), "/v1")
	}

	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), "/v1")
	return strings.TrimRight(parsed.String(), "/")
}
