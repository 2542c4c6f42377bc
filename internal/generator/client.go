package generator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/gisa-quiz/backend/internal/models"
)

// LLMClient is the interface every generator backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Options selects the LLM backend. Mock wins over CLIPath, which wins over
// the API.
type Options struct {
	Mock    bool
	CLIPath string
	Model   string
	APIKey  string
}

// Generator wraps an LLMClient and drafts exam questions.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator(opts Options) *Generator {
	if opts.Mock {
		log.Println("[generator] using mock data")
		return &Generator{llm: NewMockClient(), model: "mock"}
	}
	if opts.CLIPath != "" {
		log.Println("[generator] using local CLI:", opts.CLIPath)
		return &Generator{llm: NewCLIClient(opts.CLIPath), model: "cli"}
	}

	log.Println("[generator] using Anthropic API:", opts.Model)
	return &Generator{llm: NewAPIClient(opts.Model, opts.APIKey), model: opts.Model}
}

// NewWithClient is used by tests and callers that bring their own client.
func NewWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// IsMock reports whether drafts come from canned data.
func (g *Generator) IsMock() bool {
	_, ok := g.llm.(*MockClient)
	return ok
}

func (g *Generator) Client() LLMClient {
	return g.llm
}

func (g *Generator) GenerateQuestions(ctx context.Context, category models.Category, qtype models.QuestionType, count int) (*GeneratedBatch, *LLMResponse, error) {
	systemPrompt := SystemPrompt()
	userPrompt := BuildUserPrompt(category, qtype, count)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}

	batch, err := ParseResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse response: %w", err)
	}

	return batch, resp, nil
}

// ── APIClient: Anthropic SDK ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model, apiKey string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   8192,
		Temperature: param.NewOpt(0.8),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[generator] retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			select {
			case <-time.After(sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("[generator] Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: local development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockJSON(countFromPrompt(userPrompt)),
		PromptTokens: 1500,
		OutputTokens: 3000,
	}, nil
}

func buildMockJSON(count int) string {
	topics := []string{"변압기 효율", "송전선로 손실", "정전용량", "유도전동기 슬립", "접지저항", "RLC 공진"}

	var sb strings.Builder
	sb.WriteString(`{"questions":[`)
	for i := 0; i < count; i++ {
		topic := topics[i%len(topics)]
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"question":"[Mock %d] %s에 관한 설명으로 옳은 것은?","options":["%s 보기 1","%s 보기 2","%s 보기 3","%s 보기 4"],"answer_index":%d,"explanation":"[Mock] %s의 정의에 따라 %d번이 옳다.","cheat_key":"%s = 핵심 공식","strategy":"[Mock] 단위를 먼저 확인한다."}`,
			i+1, topic, topic, topic, topic, topic, i%4+1, topic, i%4+1, topic)
	}
	sb.WriteString("]}")
	return sb.String()
}

// countFromPrompt reads the requested count from the first line of a user
// prompt ("Generate exactly N ...").
func countFromPrompt(prompt string) int {
	var n int
	if _, err := fmt.Sscanf(prompt, "Generate exactly %d", &n); err != nil || n <= 0 {
		return 5
	}
	return n
}
