package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Validator solves each draft independently and checks that it lands on the
// intended answer.
type Validator struct {
	llm LLMClient
}

func NewValidator(llm LLMClient) *Validator {
	return &Validator{llm: llm}
}

type ValidationResult struct {
	QuestionIndex int    `json:"question_index"`
	SelectedIndex int    `json:"selected_index"`
	ExpectedIndex int    `json:"expected_index"`
	Matches       bool   `json:"matches"`
	Confidence    string `json:"confidence"`
	Reasoning     string `json:"reasoning"`
	PromptTokens  int    `json:"prompt_tokens"`
	OutputTokens  int    `json:"output_tokens"`
}

type BatchValidationResult struct {
	TotalQuestions    int                `json:"total_questions"`
	PassedCount       int                `json:"passed_count"`
	FlaggedCount      int                `json:"flagged_count"`
	RejectedCount     int                `json:"rejected_count"`
	Results           []ValidationResult `json:"results"`
	TotalPromptTokens int                `json:"total_prompt_tokens"`
	TotalOutputTokens int                `json:"total_output_tokens"`
}

type verificationResponse struct {
	SelectedIndex int    `json:"selected_index"`
	Confidence    string `json:"confidence"`
	Reasoning     string `json:"reasoning"`
}

func (v *Validator) ValidateBatch(ctx context.Context, batch *GeneratedBatch) (*BatchValidationResult, error) {
	if v.llm == nil {
		return nil, fmt.Errorf("validator not initialized")
	}

	result := &BatchValidationResult{
		TotalQuestions: len(batch.Questions),
		Results:        make([]ValidationResult, 0, len(batch.Questions)),
	}

	for i, q := range batch.Questions {
		vr, err := v.ValidateQuestion(ctx, q)
		if err != nil {
			log.Printf("[generator] WARN: validation failed for question %d: %v, passing as unvalidated", i+1, err)
			vr = &ValidationResult{
				SelectedIndex: q.AnswerIndex,
				Confidence:    "low",
				Reasoning:     fmt.Sprintf("validation error: %v", err),
			}
		}
		vr.QuestionIndex = i
		vr.ExpectedIndex = q.AnswerIndex

		if vr.SelectedIndex == q.AnswerIndex {
			vr.Matches = true
			if vr.Confidence == "high" {
				result.PassedCount++
			} else {
				result.FlaggedCount++
			}
		} else {
			vr.Matches = false
			result.RejectedCount++
		}

		result.TotalPromptTokens += vr.PromptTokens
		result.TotalOutputTokens += vr.OutputTokens
		result.Results = append(result.Results, *vr)
	}

	return result, nil
}

func (v *Validator) ValidateQuestion(ctx context.Context, q GeneratedQuestion) (*ValidationResult, error) {
	prompt := buildVerificationPrompt(q)

	resp, err := v.llm.Generate(ctx, verificationSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	cleaned := stripCodeFences(resp.Content)
	var vResp verificationResponse
	if err := json.Unmarshal([]byte(cleaned), &vResp); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	return &ValidationResult{
		SelectedIndex: vResp.SelectedIndex,
		Confidence:    strings.ToLower(strings.TrimSpace(vResp.Confidence)),
		Reasoning:     vResp.Reasoning,
		PromptTokens:  resp.PromptTokens,
		OutputTokens:  resp.OutputTokens,
	}, nil
}

const verificationSystemPrompt = `You are a 전기기사 instructor reviewing a practice question. Solve it yourself, checking every option, and report which option is correct. Respond with JSON only.`

func buildVerificationPrompt(q GeneratedQuestion) string {
	var sb strings.Builder

	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.Question)
	sb.WriteString("\n\nOPTIONS:\n")

	for i, o := range q.Options {
		sb.WriteString(fmt.Sprintf("(%d) %s\n", i+1, o))
	}

	sb.WriteString(`
Select the correct option. Respond with JSON only:
{
  "selected_index": 2,
  "confidence": "high",
  "reasoning": "Step-by-step solution and why each other option is wrong..."
}`)

	return sb.String()
}
