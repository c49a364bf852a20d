// Package ai provides AI commentary for finished quiz sessions.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// BedrockClientInterface defines the interface for Bedrock client.
type BedrockClientInterface interface {
	InvokeModel(modelID string, prompt string) (string, error)
}

// ClaudeResponse represents the response from Claude.
type ClaudeResponse struct {
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a content block in Claude's response.
type ContentBlock struct {
	Text string `json:"text"`
}

// Claude 3 Haiku model ID
const claudeHaikuModelID = "anthropic.claude-3-haiku-20240307-v1:0"

var gradeMessages = map[quiz.Grade]string{
	quiz.GradeTop:           "素晴らしい！あなたは計算の天才です！",
	quiz.GradeExcellent:     "よくできました！計算が速いですね！",
	quiz.GradeAverage:       "まずまずです。もう少し練習しましょう。",
	quiz.GradeNeedsPractice: "もう一度挑戦してみましょう！",
}

// GradeMessage returns the fixed feedback line for a grade.
func GradeMessage(grade quiz.Grade) string {
	if msg, ok := gradeMessages[grade]; ok {
		return msg
	}
	return gradeMessages[quiz.GradeNeedsPractice]
}

// Coach comments on finished sessions using Claude on Bedrock.
// A nil client always yields the fixed grade message.
type Coach struct {
	client          BedrockClientInterface
	fallbackEnabled bool
}

// NewCoach creates a new Coach.
func NewCoach(client BedrockClientInterface) *Coach {
	return &Coach{
		client:          client,
		fallbackEnabled: false,
	}
}

// EnableFallback enables or disables fallback mode.
// When enabled, returns the grade message instead of error when API fails.
func (c *Coach) EnableFallback(enabled bool) {
	c.fallbackEnabled = enabled
}

// CommentOnReport asks Claude for a short comment on the report.
func (c *Coach) CommentOnReport(report quiz.FinalReport) (string, error) {
	if c.client == nil {
		return GradeMessage(report.Grade), nil
	}

	response, err := c.client.InvokeModel(claudeHaikuModelID, buildPrompt(report))
	if err != nil {
		if c.fallbackEnabled {
			return GradeMessage(report.Grade), nil
		}
		return "", fmt.Errorf("failed to invoke Bedrock: %w", err)
	}

	result, err := parseResponse(response)
	if err != nil {
		if c.fallbackEnabled {
			return GradeMessage(report.Grade), nil
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}

func buildPrompt(report quiz.FinalReport) string {
	var b strings.Builder
	for _, r := range report.Rounds {
		status := "不正解"
		switch {
		case r.TimedOut:
			status = "時間切れ"
		case r.Correct:
			status = "正解"
		}
		fmt.Fprintf(&b, "- %s = %d (%s, %.1f秒)\n", r.Problem, r.Problem.Answer, status, r.Elapsed.Seconds())
	}

	return fmt.Sprintf(`あなたは小学生向けの明るい算数コーチです。
2桁の%s問題を10問、1問5秒の制限時間で解いた結果を見て、励ましのコメントをしてください。
苦手そうな問題の傾向があれば一言だけ触れてください。

スコア: %d/%d (%.0f%%)
時間切れ: %d問
%s
短く（1-2文で）日本語で回答してください。`,
		modeLabel(report.Mode), report.Score, report.Total, report.Percentage, report.TimedOutCount(), b.String())
}

func modeLabel(mode quiz.Mode) string {
	switch mode {
	case quiz.ModeAddition:
		return "足し算"
	case quiz.ModeSubtraction:
		return "引き算"
	default:
		return "足し算と引き算"
	}
}

// parseResponse parses the Claude response JSON.
func parseResponse(response string) (string, error) {
	var claudeResp ClaudeResponse
	if err := json.Unmarshal([]byte(response), &claudeResp); err != nil {
		return "", err
	}

	if len(claudeResp.Content) == 0 {
		return "", errors.New("empty content in response")
	}

	text := strings.TrimSpace(claudeResp.Content[0].Text)
	if text == "" {
		return "", errors.New("empty text in response")
	}
	return text, nil
}
