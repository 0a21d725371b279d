// Package generator turns study material into Certo/Errado questions through an LLM.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inedit/inedit-service/internal/models"
)

// ErrUnparseableOutput is returned when the model answered without a usable payload
var ErrUnparseableOutput = errors.New("generator output could not be parsed")

// Request describes one generation call
type Request struct {
	Count        int
	Difficulty   *models.DifficultyLevel
	Tags         []string
	SystemPrompt *string
	Sources      []*models.Source
}

// GeneratedQuestion is one question as returned by the model, before normalisation
type GeneratedQuestion struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Tags          []string `json:"tags"`
	Difficulty    string   `json:"difficulty"`
}

type Result struct {
	Questions  []GeneratedQuestion
	Prompt     string
	Model      string
	TokensUsed int
}

// Generator is the LLM collaborator. Implementations do not retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// BuildPrompt renders the user prompt for req
func BuildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("You are an expert in creating CEBRASPE-style exam questions (Certo/Errado format).\n\n")
	sb.WriteString(fmt.Sprintf("Based on the following source material, generate %d high-quality questions with TWO options: %q and %q.\n\n",
		req.Count, models.OptionCerto, models.OptionErrado))

	if req.Difficulty != nil {
		sb.WriteString(fmt.Sprintf("Difficulty level: %s\n", *req.Difficulty))
	}
	if len(req.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Topics to focus on: %s\n", strings.Join(req.Tags, ", ")))
	}

	sb.WriteString("\nSource Material:\n")
	for i, source := range req.Sources {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString("Source: ")
		sb.WriteString(source.Title)
		sb.WriteString("\n")
		sb.WriteString(source.Text())
	}

	sb.WriteString("\n\nFor each question provide:\n")
	sb.WriteString("- a clear, concise title (the statement to judge)\n")
	sb.WriteString("- a brief description providing context\n")
	sb.WriteString("- the correct answer, either \"Certo\" or \"Errado\"\n")
	sb.WriteString("- a detailed explanation of why the answer is correct\n")
	sb.WriteString("- 3-5 relevant tags\n")
	sb.WriteString("- a difficulty level: easy, medium or hard\n")
	sb.WriteString(fmt.Sprintf("\nGenerate exactly %d questions and return them with the %s tool.\n", req.Count, submitToolName))

	return sb.String()
}
