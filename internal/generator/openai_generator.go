package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/inedit/inedit-service/internal/config"
	"github.com/inedit/inedit-service/internal/models"
)

const submitToolName = "submit_questions"

// OpenAIGenerator asks a chat model to call submit_questions with the batch
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewOpenAIGenerator(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := BuildPrompt(req)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != nil && *req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: *req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	g.logger.Info("Requesting question generation", "model", g.model, "count", req.Count, "sources", len(req.Sources))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  messages,
		Tools:     []openai.Tool{submitQuestionsTool()},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: submitToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrUnparseableOutput)
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool calls in response", ErrUnparseableOutput)
	}

	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != submitToolName {
		return nil, fmt.Errorf("%w: unexpected tool call %s", ErrUnparseableOutput, toolCall.Function.Name)
	}

	var toolArgs struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &toolArgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
	}
	if len(toolArgs.Questions) == 0 {
		return nil, fmt.Errorf("%w: empty question list", ErrUnparseableOutput)
	}

	g.logger.Info("Generated questions", "count", len(toolArgs.Questions), "tokens", resp.Usage.TotalTokens)

	return &Result{
		Questions:  toolArgs.Questions,
		Prompt:     prompt,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func submitQuestionsTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        submitToolName,
			Description: "Submit generated Certo/Errado questions",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"questions": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"title": map[string]interface{}{
									"type":        "string",
									"description": "The statement the student judges",
								},
								"description": map[string]interface{}{
									"type":        "string",
									"description": "Context or additional details",
								},
								"correct_answer": map[string]interface{}{
									"type": "string",
									"enum": []string{models.OptionCerto, models.OptionErrado},
								},
								"explanation": map[string]interface{}{
									"type":        "string",
									"description": "Why the answer is correct",
								},
								"tags": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "string"},
								},
								"difficulty": map[string]interface{}{
									"type": "string",
									"enum": []string{string(models.DifficultyEasy), string(models.DifficultyMedium), string(models.DifficultyHard)},
								},
							},
							"required": []string{"title", "correct_answer", "explanation"},
						},
					},
				},
				"required": []string{"questions"},
			},
		},
	}
}
