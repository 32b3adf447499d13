package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"remindd/internal/domain"
)

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type tgMessage struct {
	MessageID  int           `json:"message_id"`
	Chat       tgChat        `json:"chat"`
	From       *tgUser       `json:"from"`
	Text       string        `json:"text"`
	ChatShared *tgChatShared `json:"chat_shared,omitempty"`
	UserShared *tgUserShared `json:"user_shared,omitempty"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

type tgChatShared struct {
	RequestID int64 `json:"request_id"`
	ChatID    int64 `json:"chat_id"`
}

type tgUserShared struct {
	RequestID int64 `json:"request_id"`
	UserID    int64 `json:"user_id"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgInlineKeyboard struct {
	InlineKeyboard [][]tgInlineButton `json:"inline_keyboard"`
}

type tgInlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

type tgReplyKeyboard struct {
	Keyboard        [][]tgKeyboardButton `json:"keyboard"`
	OneTimeKeyboard bool                 `json:"one_time_keyboard"`
	ResizeKeyboard  bool                 `json:"resize_keyboard"`
}

type tgKeyboardButton struct {
	Text        string          `json:"text"`
	RequestChat *tgRequestChat  `json:"request_chat,omitempty"`
	RequestUser *tgRequestUsers `json:"request_user,omitempty"`
}

type tgRequestChat struct {
	RequestID     int64 `json:"request_id"`
	ChatIsChannel bool  `json:"chat_is_channel"`
	ChatIsForum   bool  `json:"chat_is_forum"`
}

type tgRequestUsers struct {
	RequestID int64 `json:"request_id"`
}

type tgRemoveKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type tgResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// TelegramClient is a thin typed wrapper over the Bot API: long-poll
// updates in, messages/edits/callback answers out.
type TelegramClient struct {
	token       string
	baseURL     string
	pollTimeout int
	offset      int64
	client      *http.Client
}

type TelegramConfig struct {
	Token              string
	BaseURL            string
	PollTimeoutSeconds int
}

func NewTelegramClient(cfg TelegramConfig) *TelegramClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	if cfg.PollTimeoutSeconds <= 0 {
		cfg.PollTimeoutSeconds = 30
	}
	return &TelegramClient{
		token:       cfg.Token,
		baseURL:     cfg.BaseURL,
		pollTimeout: cfg.PollTimeoutSeconds,
		client: &http.Client{
			Timeout: time.Duration(cfg.PollTimeoutSeconds+10) * time.Second,
		},
	}
}

func (c *TelegramClient) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var decoded tgResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !decoded.OK {
		return fmt.Errorf("%s rejected: %s", method, decoded.Description)
	}
	if out != nil {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *TelegramClient) Send(ctx context.Context, message Message) (SendResult, error) {
	payload := map[string]any{
		"chat_id": message.ChatID,
		"text":    message.Text,
	}
	if message.HTML {
		payload["parse_mode"] = "HTML"
	}

	switch {
	case len(message.Controls) > 0:
		keyboard := tgInlineKeyboard{}
		for _, row := range message.Controls {
			buttons := make([]tgInlineButton, 0, len(row))
			for _, control := range row {
				buttons = append(buttons, tgInlineButton{Text: control.Label, CallbackData: control.Data})
			}
			keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, buttons)
		}
		payload["reply_markup"] = keyboard
	case message.RequestReceiverKeyboard:
		payload["reply_markup"] = tgReplyKeyboard{
			Keyboard: [][]tgKeyboardButton{{
				{
					Text: "Выбрать получателя",
					RequestChat: &tgRequestChat{
						RequestID:     message.ChatID,
						ChatIsChannel: false,
						ChatIsForum:   false,
					},
				},
			}},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		}
	case message.RemoveReplyKeyboard:
		payload["reply_markup"] = tgRemoveKeyboard{RemoveKeyboard: true}
	}

	var sent tgMessage
	if err := c.call(ctx, "sendMessage", payload, &sent); err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: sent.MessageID}, nil
}

func (c *TelegramClient) Edit(ctx context.Context, chatID int64, messageID int, text string, html bool) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if html {
		payload["parse_mode"] = "HTML"
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}

// RegisterCommands publishes the bot command menu.
func (c *TelegramClient) RegisterCommands(ctx context.Context, commands map[string]string) error {
	list := make([]map[string]string, 0, len(commands))
	for command, description := range commands {
		list = append(list, map[string]string{"command": command, "description": description})
	}
	return c.call(ctx, "setMyCommands", map[string]any{"commands": list}, nil)
}

// Receive long-polls for updates and converts them to normalized events.
// Not safe for concurrent use; the dispatcher runs a single receive loop.
func (c *TelegramClient) Receive(ctx context.Context) ([]domain.Event, error) {
	var updates []tgUpdate
	payload := map[string]any{
		"offset":          c.offset,
		"timeout":         c.pollTimeout,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(updates))
	for _, update := range updates {
		if update.UpdateID >= c.offset {
			c.offset = update.UpdateID + 1
		}
		if event, ok := normalizeUpdate(update); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

func normalizeUpdate(update tgUpdate) (domain.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		event := domain.Event{
			Kind:          domain.EventControl,
			UserID:        query.From.ID,
			UserFirstName: query.From.FirstName,
			ControlToken:  query.Data,
			CallbackID:    query.ID,
		}
		if query.Message != nil {
			event.ChatID = query.Message.Chat.ID
			event.SourceMessageID = query.Message.MessageID
			event.SourceText = query.Message.Text
		}
		return event, true
	case update.Message != nil:
		message := update.Message
		event := domain.Event{
			ChatID:    message.Chat.ID,
			MessageID: message.MessageID,
		}
		if message.From != nil {
			event.UserID = message.From.ID
			event.UserFirstName = message.From.FirstName
		}
		switch {
		case message.ChatShared != nil && message.ChatShared.RequestID == message.Chat.ID:
			event.Kind = domain.EventSharedReceiver
			event.SharedReceiverID = message.ChatShared.ChatID
		case message.UserShared != nil && message.UserShared.RequestID == message.Chat.ID:
			event.Kind = domain.EventSharedReceiver
			event.SharedReceiverID = message.UserShared.UserID
		case message.Text != "":
			event.Kind = domain.EventText
			event.Text = message.Text
		default:
			return domain.Event{}, false
		}
		return event, true
	default:
		return domain.Event{}, false
	}
}
