// Package notify dispatches alert messages to chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
	"github.com/wonny/quantum/pkg/redis"
)

// DefaultBaseURL is the Telegram Bot API root
const DefaultBaseURL = "https://api.telegram.org"

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Telegram implements contracts.Notifier on the Bot API
// ⭐ SSOT: the only outbound chat path. Sends are serial, throttled and never retried.
type Telegram struct {
	token      string
	chatMain   string
	chatReview string
	baseURL    string

	http    *httputil.Client
	limiter *rate.Limiter
	mu      sync.Mutex
	logger  *logger.Logger
}

// NewTelegram creates a notifier with its own single-attempt http client
func NewTelegram(cfg *config.Config, log *logger.Logger) *Telegram {
	baseURL := strings.TrimRight(cfg.Notifier.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	if cfg.Notifier.Interval > 0 {
		limit = rate.Every(cfg.Notifier.Interval)
	}

	return &Telegram{
		token:      cfg.Notifier.Token,
		chatMain:   cfg.Notifier.ChatMain,
		chatReview: cfg.Notifier.ChatReview,
		baseURL:    baseURL,
		http:       httputil.New(cfg, log).DisableRetry(),
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log.WithComponent("notify"),
	}
}

// WithRateLimiter shares the Redis host limiter with the fetcher
func (t *Telegram) WithRateLimiter(limiter *redis.RateLimiter) *Telegram {
	t.http.WithRateLimiter(limiter)
	return t
}

// Configured reports whether a token and the main chat are set
func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatMain != ""
}

// chatFor resolves a channel to a chat id; review falls back to main
func (t *Telegram) chatFor(channel contracts.Channel) string {
	if channel == contracts.ChannelReview && t.chatReview != "" {
		return t.chatReview
	}
	return t.chatMain
}

// Send delivers message to channel at most once
func (t *Telegram) Send(ctx context.Context, channel contracts.Channel, message string) error {
	chat := t.chatFor(channel)
	if t.token == "" || chat == "" {
		return fmt.Errorf("telegram %s: %w: token or chat id", channel, contracts.ErrMissingConfig)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram %s: %w", channel, contracts.ErrCancelled)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req := sendMessageRequest{
		ChatID:                chat,
		Text:                  message,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	start := time.Now()
	var resp sendMessageResponse
	if err := t.http.PostJSON(ctx, endpoint, req, &resp); err != nil {
		return classify(channel, err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram %s: %w: %s", channel, contracts.ErrBadTarget, resp.Description)
	}

	t.logger.WithFields(map[string]interface{}{
		"channel":     string(channel),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Alert sent")
	return nil
}

// classify maps a fetch failure to a notifier kind.
// The underlying error embeds the tokenized URL and is not propagated.
func classify(channel contracts.Channel, err error) error {
	status := httputil.StatusCode(err)
	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = contracts.ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusForbidden:
		kind = contracts.ErrBadTarget
	case errors.Is(err, contracts.ErrCancelled):
		kind = contracts.ErrCancelled
	default:
		kind = contracts.ErrTransport
	}
	if status != 0 {
		return fmt.Errorf("telegram %s: %w (status %d)", channel, kind, status)
	}
	return fmt.Errorf("telegram %s: %w", channel, kind)
}

var _ contracts.Notifier = (*Telegram)(nil)
