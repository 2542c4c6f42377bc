package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIClient runs a local LLM command-line tool once per prompt. The user
// prompt goes in on stdin and the whole of stdout is the reply. No token
// usage is reported.
type CLIClient struct {
	path string
}

func NewCLIClient(path string) *CLIClient {
	return &CLIClient{path: path}
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.path,
		"--print",
		"--output-format", "text",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("llm cli %s: %w: %s", c.path, err, strings.TrimSpace(stderr.String()))
	}

	content := strings.TrimSpace(stdout.String())
	if content == "" {
		return nil, fmt.Errorf("llm cli %s returned empty response", c.path)
	}

	return &LLMResponse{Content: content}, nil
}
