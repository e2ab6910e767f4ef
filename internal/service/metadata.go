package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/schnitzlab/curator/internal/domain"
	"github.com/schnitzlab/curator/internal/prompts"
)

// promptPreviewLength caps the page-content excerpt embedded in the
// metadata prompt.
const promptPreviewLength = 1000

// MetadataGenerator produces structured metadata for a candidate URL. The
// quality score gates acceptance into the catalog.
type MetadataGenerator interface {
	GenerateMetadata(ctx context.Context, url, content string) (*domain.SourceMetadata, error)
}

// QueryGenerator expands a topic into search queries for the queue.
type QueryGenerator interface {
	GenerateQueries(ctx context.Context, topic string, count int) ([]string, error)
}

// GeminiService calls the Gemini generateContent API for metadata
// generation, query expansion, and title correction.
type GeminiService struct {
	client         *resty.Client
	baseURL        string
	apiKey         string
	metadataModel  string
	expansionModel string
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	MetadataModel  string
	ExpansionModel string
}

// NewGeminiService creates a new Gemini client.
func NewGeminiService(cfg *GeminiConfig) *GeminiService {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	// The generation call is the dominant per-URL latency cost; cap it so a
	// hung upstream cannot stall the whole run.
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	metadataModel := cfg.MetadataModel
	if metadataModel == "" {
		metadataModel = "gemini-2.0-flash"
	}
	expansionModel := cfg.ExpansionModel
	if expansionModel == "" {
		expansionModel = metadataModel
	}

	return &GeminiService{
		client:         client,
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		metadataModel:  metadataModel,
		expansionModel: expansionModel,
	}
}

// Gemini generateContent request/response structures
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// generate sends one prompt to the given model and returns the text of the
// first candidate.
func (s *GeminiService) generate(ctx context.Context, model, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	var resp geminiResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", s.apiKey).
		SetBody(req).
		SetResult(&resp).
		Post(fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, model))
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return "", fmt.Errorf("Gemini API returned error: HTTP %d: %s",
				httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("Gemini API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}
	if resp.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response (status: %d)", httpResp.StatusCode())
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// rawMetadata decodes the model's JSON. QualityScore is a pointer so a
// missing field can be told apart from a genuine zero score.
type rawMetadata struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	Language     string   `json:"language"`
	QualityScore *int     `json:"quality_score"`
}

// GenerateMetadata asks the model for structured metadata for a URL.
// Content may be empty (fetch failed or timed out); the model then judges
// from the URL alone.
func (s *GeminiService) GenerateMetadata(ctx context.Context, url, content string) (*domain.SourceMetadata, error) {
	previewBlock := ""
	if content != "" {
		previewBlock = fmt.Sprintf(prompts.ContentPreviewLine, truncate(content, promptPreviewLength))
	}
	prompt := fmt.Sprintf(prompts.SourceMetadataPrompt, url, previewBlock)

	text, err := s.generate(ctx, s.metadataModel, prompt)
	if err != nil {
		return nil, err
	}

	return ParseMetadataResponse(text)
}

// ParseMetadataResponse decodes a model metadata reply, stripping markdown
// fences and applying defaults for missing fields.
func ParseMetadataResponse(text string) (*domain.SourceMetadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	metadata := &domain.SourceMetadata{
		Title:    raw.Title,
		Summary:  raw.Summary,
		Category: raw.Category,
		Tags:     raw.Tags,
		Language: raw.Language,
	}
	if metadata.Category == "" {
		metadata.Category = domain.CategorySonstiges
	}
	if metadata.Language == "" {
		metadata.Language = "Deutsch"
	}
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}
	if raw.QualityScore == nil {
		metadata.QualityScore = 5
	} else {
		metadata.QualityScore = clampScore(*raw.QualityScore)
	}
	return metadata, nil
}

// GenerateQueries expands a topic into up to count pending search queries.
func (s *GeminiService) GenerateQueries(ctx context.Context, topic string, count int) ([]string, error) {
	prompt := fmt.Sprintf(prompts.SearchQueryPrompt, count, topic)

	text, err := s.generate(ctx, s.expansionModel, prompt)
	if err != nil {
		return nil, err
	}

	var queries []string
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &queries); err != nil {
		return nil, fmt.Errorf("failed to parse query list response: %w", err)
	}
	return queries, nil
}

// CorrectTitle asks the model to fix or regenerate a source title. On any
// failure the original title is returned so the operation is always safe.
func (s *GeminiService) CorrectTitle(ctx context.Context, title, url, summary string) string {
	summaryLine := ""
	if summary != "" {
		summaryLine = fmt.Sprintf("Summary: %s\n", truncate(summary, promptPreviewLength))
	}
	prompt := fmt.Sprintf(prompts.TitleCorrectionPrompt, title, url, summaryLine)

	text, err := s.generate(ctx, s.expansionModel, prompt)
	if err != nil {
		return title
	}

	corrected := strings.Trim(strings.TrimSpace(text), `"'`)
	if corrected == "" {
		return title
	}
	return corrected
}

// StripCodeFences removes markdown code fences the model sometimes wraps
// around JSON despite being told not to.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
