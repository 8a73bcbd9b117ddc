package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/tmtvocab/pkg/models"
)

// DeepSeek represents a client for the DeepSeek chat-completions API,
// used to expand the vocabulary pool on demand
type DeepSeek struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// New creates a new DeepSeek client
func New() (*DeepSeek, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY environment variable is not set")
	}

	return &DeepSeek{
		apiKey:      apiKey,
		apiURL:      "https://api.deepseek.com/chat/completions",
		model:       "deepseek-chat",
		maxTokens:   4096,
		temperature: 0.8,
		client:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat-completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the chat-completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// categoryHints describe each category to the model
var categoryHints = map[models.Category]string{
	models.CategoryEarnings:      "财报与估值 (earnings calls, financial metrics, valuation)",
	models.CategoryAIML:          "AI/ML技术 (artificial intelligence, machine learning, deep learning)",
	models.CategorySemiconductor: "半导体供应链 (semiconductor manufacturing, chip design, supply chain)",
	models.CategoryCloudSaaS:     "云计算/SaaS (cloud computing, SaaS metrics, enterprise software)",
	models.CategoryM7:            "M7公司业务 (Magnificent 7 tech companies: Apple, Microsoft, Google, Amazon, Meta, NVIDIA, Tesla)",
	models.CategoryConference:    "电话会议/研报 (earnings calls, analyst reports, investor relations)",
}

// generatedWord is the JSON shape the model is asked to produce
type generatedWord struct {
	Word          string `json:"word"`
	Pronunciation string `json:"pronunciation"`
	PartOfSpeech  string `json:"partOfSpeech"`
	Definition    string `json:"definition"`
	DefinitionCn  string `json:"definitionCn"`
	Example       string `json:"example"`
	ExampleCn     string `json:"exampleCn"`
	Context       string `json:"context"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
}

// GenerateWords asks the model for count new TMT vocabulary words. Pass
// models.CategoryAll for a category mix. excludeWords lists word texts the
// pool already has so the model avoids them; the caller still deduplicates
// the result. Malformed entries are dropped rather than surfaced.
func (c *DeepSeek) GenerateWords(ctx context.Context, category models.Category, count int, excludeWords []string) ([]models.Word, error) {
	if count <= 0 {
		count = 10
	}

	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "system",
				Content: "You are a TMT industry vocabulary expert. You generate high-quality English " +
					"vocabulary words used in technology, media, and telecom sectors. Always respond with valid JSON only.",
			},
			{Role: "user", Content: buildPrompt(category, count, excludeWords)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return parseWords(response.Choices[0].Message.Content)
}

// buildPrompt assembles the generation prompt. Examples should reference
// real companies so the vocabulary stays practical for TMT analysis.
func buildPrompt(category models.Category, count int, excludeWords []string) string {
	categoryHint := "Cover a mix of categories: earnings, ai-ml, semiconductor, cloud-saas, m7, conference."
	categoryValue := "one of: earnings, ai-ml, semiconductor, cloud-saas, m7, conference"
	if hint, ok := categoryHints[category]; ok {
		categoryHint = fmt.Sprintf("Focus on the category: %s.", hint)
		categoryValue = string(category)
	}

	existingList := ""
	if len(excludeWords) > 0 {
		existingList = fmt.Sprintf(
			"\n\nDo NOT generate any of these words (already in the vocabulary): %s",
			strings.Join(excludeWords, ", "),
		)
	}

	return fmt.Sprintf(`Generate %d TMT (Technology, Media, Telecom) industry English vocabulary words for a learning app targeting Chinese speakers who work in tech/finance.

%s%s

Return a JSON array of objects with this exact format:
[
  {
    "word": "the English word or phrase",
    "pronunciation": "/phonetic transcription/",
    "partOfSpeech": "noun/verb/adjective/phrase",
    "definition": "Clear English definition",
    "definitionCn": "简洁的中文释义",
    "example": "A realistic example sentence using the word in a TMT/finance context, referencing real companies like Apple, NVIDIA, Microsoft, etc.",
    "exampleCn": "例句的中文翻译",
    "context": "使用场景和补充说明（中文），包括常见搭配、相关概念等",
    "category": "%s",
    "difficulty": "one of: beginner, intermediate, advanced"
  }
]

Requirements:
- Words should be commonly used in earnings calls, analyst reports, tech conferences, and financial discussions
- Examples should reference real companies and realistic scenarios
- Each word should be distinct and useful for someone analyzing TMT stocks
- Return ONLY the JSON array, no other text`,
		count, categoryHint, existingList, categoryValue)
}

// parseWords extracts the word list from the model output. Models like to
// wrap JSON in markdown code fences, so those are stripped first.
func parseWords(content string) ([]models.Word, error) {
	jsonStr := strings.ReplaceAll(content, "```json", "")
	jsonStr = strings.ReplaceAll(jsonStr, "```", "")
	jsonStr = strings.TrimSpace(jsonStr)

	var raw []generatedWord
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %v", err)
	}

	timestamp := time.Now().UnixMilli()
	words := make([]models.Word, 0, len(raw))
	for i, g := range raw {
		word := models.Word{
			ID:            fmt.Sprintf("gen-%d-%d", timestamp, i),
			Word:          strings.TrimSpace(g.Word),
			Pronunciation: g.Pronunciation,
			PartOfSpeech:  g.PartOfSpeech,
			Definition:    g.Definition,
			DefinitionCn:  g.DefinitionCn,
			Example:       g.Example,
			ExampleCn:     g.ExampleCn,
			Context:       g.Context,
			Category:      models.Category(g.Category),
			Difficulty:    g.Difficulty,
			Source:        models.SourceGenerated,
			CreatedAt:     time.Now(),
		}
		if err := word.Validate(); err != nil {
			// drop malformed entries, keep the rest
			continue
		}
		words = append(words, word)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("AI response contained no usable words")
	}
	return words, nil
}
