package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"course_ai_backend/internal/config"
	"course_ai_backend/internal/util"
)

// AIService 封装 OpenAI 兼容接口：普通对话、流式输出、结构化 JSON、图片生成
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
		Delta   AIChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	return s.client.Do(req)
}

// ChatStream 流式生成，逐 token 推到返回的通道。取消 ctx 即中断底层请求，
// 通道随之关闭，errChan 里不会再出现取消引发的错误。
func (s *AIService) ChatStream(ctx context.Context, system, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		"stream": true,
	}

	go func() {
		defer close(out)
		defer close(errChan)

		resp, err := s.postJSON(ctx, "/chat/completions", reqBody)
		if err != nil {
			if ctx.Err() == nil {
				errChan <- err
			}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errChan <- fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errChan <- err
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			var streamResp ChatCompletionResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				continue
			}

			if len(streamResp.Choices) > 0 {
				content := streamResp.Choices[0].Delta.Content
				if content == "" {
					continue
				}
				select {
				case out <- content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errChan
}

// Chat 一次性返回完整回答
func (s *AIService) Chat(ctx context.Context, system, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	resp, err := s.postJSON(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", util.ErrEmptyAIResponse
	}
	return result.Choices[0].Message.Content, nil
}

// GenerateJSON 带 JSON Schema 约束的结构化输出，直接反序列化到 out
func (s *AIService) GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   schemaName,
				"strict": true,
				"schema": schema,
			},
		},
	}

	resp, err := s.postJSON(ctx, "/chat/completions", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return util.ErrEmptyAIResponse
	}

	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("AI response was not valid JSON: %w", err)
	}
	return nil
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateImage 生成课程封面图，返回解码后的图片字节
func (s *AIService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	model := s.config.ImageModel
	if model == "" {
		model = s.config.Model
	}
	reqBody := map[string]interface{}{
		"model":           model,
		"prompt":          prompt,
		"n":               1,
		"response_format": "b64_json",
	}

	resp, err := s.postJSON(ctx, "/images/generations", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image data not found in response")
	}

	return base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
}
