package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-screener-go/internal/logger"
)

const (
	defaultAPIURL    = "https://api.openai.com/v1/chat/completions"
	defaultModelName = "gpt-4o-mini"
)

// GenerationParams 每次调用级的采样参数。
// 抽取和打分共用同一个客户端但需要不同的temperature和输出上限。
type GenerationParams struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// OpenAIChatModel 通过OpenAI兼容的chat completions接口访问LLM，
// 实现 model.ChatModel 与 model.ToolCallingChatModel 接口
type OpenAIChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
	params     GenerationParams
}

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// NewOpenAIChatModel 创建一个OpenAI兼容的聊天模型客户端
func NewOpenAIChatModel(apiKey, modelName, apiURL string, params GenerationParams) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultAPIURL
	}

	logger.Info().
		Str("api_url", apiURL).
		Str("model", modelName).
		Msg("初始化LLM客户端")

	return &OpenAIChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		params:     params,
	}, nil
}

// Generate 实现 model.ChatModel 接口
func (c *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	for _, opt := range options {
		_ = opt
	}

	reqPayload := chatCompletionRequest{
		Model:    c.modelName,
		Messages: messages,
	}
	if c.params.Temperature > 0 {
		t := c.params.Temperature
		reqPayload.Temperature = &t
	}
	if c.params.TopP > 0 {
		p := c.params.TopP
		reqPayload.TopP = &p
	}
	if c.params.MaxOutputTokens > 0 {
		reqPayload.MaxTokens = c.params.MaxOutputTokens
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug().
		Str("model", c.modelName).
		Int("messages", len(messages)).
		Msg("发送LLM请求")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("反序列化API响应失败: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("API返回空choices: %s", string(bodyBytes))
	}

	apiMsg := apiResp.Choices[0].Message
	content := ""
	if apiMsg.Content != nil {
		content = *apiMsg.Content
	}

	result := &schema.Message{
		Role:    schema.RoleType(apiMsg.Role),
		Content: content,
	}
	if result.Role == "" {
		result.Role = schema.Assistant
	}
	return result, nil
}

// Stream 未实现，本服务的抽取和打分都是单次请求响应
func (c *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel不支持流式输出")
}

// BindTools 实现 model.ChatModel 接口。本服务不使用工具调用，仅保留接口兼容
func (c *OpenAIChatModel) BindTools(tools []*schema.ToolInfo) error {
	if len(tools) > 0 {
		logger.Warn().Int("tools", len(tools)).Msg("收到工具绑定请求但本模型不使用工具调用")
	}
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (c *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if err := c.BindTools(tools); err != nil {
		return nil, err
	}
	return c, nil
}

var _ model.ChatModel = (*OpenAIChatModel)(nil)
var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
