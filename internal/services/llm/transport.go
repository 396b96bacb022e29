package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// postJSON sends payload and returns the response body. Non-2xx replies
// become *httpStatusError so the retry policy can classify them.
func (c *Client) postJSON(ctx context.Context, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm request: read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return body, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return body, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) sendChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (completion, error) {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	body, err := c.postJSON(ctx, c.cfg.BaseURL, map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}, payload)
	if err != nil {
		return completion{Body: body}, err
	}
	var decoded chatCompletionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return completion{Body: body}, fmt.Errorf("llm request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return completion{Body: body}, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	result := completion{Body: body}
	for _, choice := range decoded.Choices {
		if result.FinishReason == "" {
			result.FinishReason = choice.FinishReason
		}
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" && result.FinishReason == "" {
			result.FinishReason = "refusal: " + refusal
		}
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			result.Content = content
			break
		}
	}
	return result, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent    `json:"system_instruction"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) sendGenerateContent(ctx context.Context, systemPrompt, userPrompt string) (completion, error) {
	payload := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt}}}},
		GenerationConfig:  generationConfig{ResponseMIMEType: "application/json"},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	body, err := c.postJSON(ctx, endpoint, map[string]string{"x-goog-api-key": c.cfg.APIKey}, payload)
	if err != nil {
		return completion{Body: body}, err
	}
	var decoded geminiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return completion{Body: body}, fmt.Errorf("llm request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return completion{Body: body}, fmt.Errorf("llm request: api error: %s (%s)", strings.TrimSpace(decoded.Error.Message), decoded.Error.Status)
	}
	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return completion{Body: body}, fmt.Errorf("llm request: prompt blocked: %s", decoded.PromptFeedback.BlockReason)
	}
	result := completion{Body: body}
	for _, candidate := range decoded.Candidates {
		if result.FinishReason == "" {
			result.FinishReason = candidate.FinishReason
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if content := strings.TrimSpace(text.String()); content != "" {
			result.Content = content
			break
		}
	}
	return result, nil
}
