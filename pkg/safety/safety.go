package safety

import (
	"Agora/config"
	"Agora/pkg/llm"
	"Agora/pkg/log"
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Checker 内容安全判定
type Checker interface {
	IsSafe(ctx context.Context, text string) (safe bool, reason string, err error)
}

type Completer interface {
	Complete(ctx context.Context, model string, messages []llm.Message) (*llm.Completion, error)
}

// New 按配置组装：屏蔽词始终生效，开启 moderation 时追加大模型审核
func New(conf *config.Safety, completer Completer) Checker {
	chain := Chain{NewKeywords(conf.Keywords)}
	if conf.Moderation && completer != nil {
		chain = append(chain, NewModeration(completer, ""))
	}
	return chain
}

// Chain 依次判定，任一不通过即不通过
type Chain []Checker

func (c Chain) IsSafe(ctx context.Context, text string) (bool, string, error) {
	for _, checker := range c {
		ok, reason, err := checker.IsSafe(ctx, text)
		if err != nil {
			return false, "", err
		}
		if !ok {
			return false, reason, nil
		}
	}
	return true, "", nil
}

// Keywords 屏蔽词匹配，忽略大小写
type Keywords struct {
	words []string
}

func NewKeywords(words []string) *Keywords {
	k := &Keywords{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			k.words = append(k.words, w)
		}
	}
	return k
}

func (k *Keywords) IsSafe(_ context.Context, text string) (bool, string, error) {
	lower := strings.ToLower(text)
	for _, w := range k.words {
		if strings.Contains(lower, w) {
			return false, "包含敏感词", nil
		}
	}
	return true, "", nil
}

const moderationPrompt = `你是内容安全审核员。判断用户输入是否包含违法、色情、暴力、仇恨或人身攻击内容。
只输出 JSON：{"safe": true 或 false, "reason": "简短原因"}`

// Moderation 调用大模型审核
// 审核服务不可用时放行，只记录日志；供应商直接拒绝的内容判为不安全
type Moderation struct {
	completer Completer
	model     string
}

func NewModeration(completer Completer, model string) *Moderation {
	return &Moderation{completer: completer, model: model}
}

func (m *Moderation) IsSafe(ctx context.Context, text string) (bool, string, error) {
	res, err := m.completer.Complete(ctx, m.model, []llm.Message{
		{Role: llm.RoleSystem, Content: moderationPrompt},
		{Role: llm.RoleUser, Content: text},
	})
	if err != nil {
		if errors.Is(err, llm.ErrRejected) {
			return false, "内容未通过审核", nil
		}
		log.L.Warn("moderation unavailable, skip", zap.Error(err))
		return true, "", nil
	}

	verdict, ok := parseVerdict(res.Content)
	if !ok {
		log.L.Warn("moderation verdict unparsable", zap.String("content", res.Content))
		return true, "", nil
	}
	if !verdict.Get("safe").Bool() {
		reason := verdict.Get("reason").String()
		if reason == "" {
			reason = "内容未通过审核"
		}
		return false, reason, nil
	}
	return true, "", nil
}

// parseVerdict 从模型输出中取出 JSON 对象，兼容 ```json 代码块
func parseVerdict(content string) (gjson.Result, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	verdict := gjson.Parse(raw)
	if !verdict.Get("safe").Exists() {
		return gjson.Result{}, false
	}
	return verdict, true
}
