package llm

import (
	"Agora/config"
	"Agora/pkg/log"
	"Agora/pkg/utils"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// TitleMaxRunes 会话标题最大字数
	TitleMaxRunes = 20
)

var (
	ErrTimeout     = errors.New("llm: request timeout")
	ErrQuota       = errors.New("llm: quota exceeded")
	ErrRejected    = errors.New("llm: rejected by provider safety")
	ErrUnavailable = errors.New("llm: provider unavailable")
)

type Message struct {
	Role    string
	Content string
}

// Completion 一次补全结果
type Completion struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int64
	CompletionTokens int64
	Latency          time.Duration
}

type Client struct {
	client     openai.Client
	model      string
	titleModel string
}

func NewClient(conf *config.LLM) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(conf.APIKey),
		option.WithMaxRetries(conf.MaxRetries),
	}
	if conf.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.BaseURL))
	}
	if conf.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(conf.Timeout()))
	}

	titleModel := conf.TitleModel
	if titleModel == "" {
		titleModel = conf.Model
	}

	return &Client{
		client:     openai.NewClient(opts...),
		model:      conf.Model,
		titleModel: titleModel,
	}
}

// DefaultModel 未指定模型时使用
func (c *Client) DefaultModel() string {
	return c.model
}

// Complete 对话补全，model 为空时使用默认模型
// 返回的错误统一归类为 ErrTimeout / ErrQuota / ErrRejected / ErrUnavailable
func (c *Client) Complete(ctx context.Context, model string, messages []Message) (*Completion, error) {
	if model == "" {
		model = c.model
	}

	startTime := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toParams(messages),
	})
	if err != nil {
		kind := classify(err)
		log.L.Warn("llm completion failed",
			zap.String("model", model),
			zap.Duration("cost", time.Since(startTime)),
			zap.NamedError("kind", kind),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", kind, err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUnavailable)
	}
	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, fmt.Errorf("%w: finish reason content_filter", ErrRejected)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnavailable)
	}

	result := &Completion{
		Content:          content,
		Model:            completion.Model,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		Latency:          time.Since(startTime),
	}
	if result.Model == "" {
		result.Model = model
	}

	log.L.Info("llm completion",
		zap.String("model", result.Model),
		zap.Int64("prompt_tokens", result.PromptTokens),
		zap.Int64("completion_tokens", result.CompletionTokens),
		zap.Duration("cost", result.Latency),
	)
	return result, nil
}

// GenerateTitle 为对话生成不超过 20 字的标题
func (c *Client) GenerateTitle(ctx context.Context, text string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: "你是标题助手。用不超过20个字概括用户的问题，只输出标题本身，不要标点和解释。"},
		{Role: RoleUser, Content: text},
	}
	completion, err := c.Complete(ctx, c.titleModel, messages)
	if err != nil {
		return "", err
	}

	title := utils.CleanTitle(completion.Content, TitleMaxRunes)
	if title == "" {
		return "", fmt.Errorf("%w: empty title", ErrUnavailable)
	}
	return title, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}

// classify 将供应商错误归类
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := strings.ToLower(strings.Join([]string{apiErr.Code, apiErr.Type, apiErr.Error()}, " "))
		switch {
		case strings.Contains(code, "insufficient_quota"), strings.Contains(code, "arrearage"):
			return ErrQuota
		case strings.Contains(code, "content_filter"),
			strings.Contains(code, "data_inspection_failed"),
			strings.Contains(code, "content_policy"):
			return ErrRejected
		}
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusPaymentRequired:
			return ErrQuota
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return ErrTimeout
		}
	}
	return ErrUnavailable
}
