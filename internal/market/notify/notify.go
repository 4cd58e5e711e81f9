// Package notify pushes task-completion messages to a Feishu group
// webhook. Delivery is best effort: failures are logged, never returned
// to the collection path.
package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notifier posts messages to a single Feishu bot webhook. A Notifier
// with an empty webhook URL is disabled and drops every message.
type Notifier struct {
	webhookURL string
	client     *resty.Client
	logger     *zap.Logger
	now        func() time.Time
}

type webhookResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func NewNotifier(webhookURL string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Notifier{
		webhookURL: webhookURL,
		client:     client,
		logger:     logger,
		now:        time.Now,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// NotifyTaskCompletion reports one finished task. With details present
// it sends an interactive card listing them, otherwise a plain text
// line. The return value is informational only.
func (n *Notifier) NotifyTaskCompletion(ctx context.Context, task string, success bool, details map[string]string) bool {
	if !n.Enabled() {
		return false
	}

	emoji, status := "✅", "成功"
	if !success {
		emoji, status = "❌", "失败"
	}
	title := fmt.Sprintf("%s A股数据采集 - %s%s", emoji, task, status)

	if len(details) == 0 {
		text := fmt.Sprintf("%s\n时间: %s", title, n.now().Format("2006-01-02 15:04:05"))
		return n.sendText(ctx, text)
	}

	fields := map[string]string{
		"任务状态": fmt.Sprintf("%s %s", emoji, status),
		"任务名称": task,
	}
	for k, v := range details {
		fields[k] = v
	}
	return n.sendCard(ctx, title, fields)
}

func (n *Notifier) sendText(ctx context.Context, text string) bool {
	payload := map[string]any{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	}
	return n.post(ctx, payload)
}

func (n *Notifier) sendCard(ctx context.Context, title string, fields map[string]string) bool {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	elements := make([]map[string]any, 0, len(fields)+1)
	for _, k := range keys {
		elements = append(elements, cardLine(fmt.Sprintf("**%s**: %s", k, fields[k])))
	}
	elements = append(elements, cardLine(
		fmt.Sprintf("**执行时间**: %s", n.now().Format("2006-01-02 15:04:05"))))

	payload := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"elements": elements,
			"header": map[string]any{
				"title":    map[string]string{"content": title, "tag": "lark_md"},
				"template": "blue",
			},
		},
	}
	return n.post(ctx, payload)
}

func cardLine(content string) map[string]any {
	return map[string]any{
		"tag":  "div",
		"text": map[string]string{"content": content, "tag": "lark_md"},
	}
}

func (n *Notifier) post(ctx context.Context, payload map[string]any) bool {
	var result webhookResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.Error(err))
		return false
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected the message",
			zap.Int("status", resp.StatusCode()))
		return false
	}
	if result.Code != 0 {
		n.logger.Warn("webhook reported an error",
			zap.Int("code", result.Code), zap.String("msg", result.Msg))
		return false
	}
	return true
}
