package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// Client talks to the Telegram Bot API.
type Client struct {
	token   string
	baseURL string
	client  *resty.Client
}

var bot *Client

// InitBot builds the global bot client from config. Called once from
// bootstrap.
func InitBot() {
	bot = NewClient(
		config.GetString("telegram.token"),
		config.GetString("telegram.base_url"),
		time.Duration(config.GetInt("telegram.timeout"))*time.Second,
		config.GetInt("telegram.max_retries"),
	)
}

// Bot returns the global client. InitBot must run first.
func Bot() *Client {
	return bot
}

// NewClient builds a Bot API client with retries on transport errors.
func NewClient(token, baseURL string, timeout time.Duration, maxRetries int) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		token:   token,
		baseURL: baseURL,
		client:  client,
	}
}

// SendMessage sends an HTML-formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if req.ParseMode == "" {
		req.ParseMode = "HTML"
	}
	return c.call(ctx, "sendMessage", req)
}

// SendText is SendMessage without a keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, SendMessageRequest{ChatID: chatID, Text: text})
}

// SendChatAction shows "typing..." while a forecast is being prepared.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.call(ctx, "sendChatAction", map[string]interface{}{
		"chat_id": chatID,
		"action":  action,
	})
}

// AnswerCallbackQuery stops the spinner on an inline button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackQueryID,
	})
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	if req.ParseMode == "" {
		req.ParseMode = "HTML"
	}
	return c.call(ctx, "editMessageText", req)
}

func (c *Client) call(ctx context.Context, method string, body interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method))
	if err != nil {
		logger.ErrorString("Telegram", method, err.Error())
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !apiResp.OK {
		logger.ErrorString("Telegram", method, fmt.Sprintf(
			"status:%d code:%d description:%s",
			resp.StatusCode(), apiResp.ErrorCode, apiResp.Description))
		return fmt.Errorf("telegram %s: api error %d: %s", method, apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}
