package telegram

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// BotAPI is a direct Telegram Bot API client for methods used outside
// telebot's update loop: channel reports, receipt forwarding, operator
// alerts.
type BotAPI struct {
	token  string
	client *resty.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return &BotAPI{
		token:  token,
		client: resty.New().SetBaseURL("https://api.telegram.org/bot" + token),
	}
}

// Call makes a raw API call to the Telegram Bot API.
func (b *BotAPI) Call(method string, params map[string]interface{}) (string, error) {
	resp, err := b.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post("/" + method)
	if err != nil {
		return "", fmt.Errorf("telegram API call %s failed: %w", method, err)
	}
	return resp.String(), nil
}

// SendMessage sends a text message.
func (b *BotAPI) SendMessage(chatID int64, text string, replyMarkup interface{}) (string, error) {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	return b.Call("sendMessage", params)
}

// SendPhoto sends a photo by file_id with a caption and optional keyboard.
func (b *BotAPI) SendPhoto(chatID int64, fileID, caption string, replyMarkup interface{}) (string, error) {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"photo":      fileID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	return b.Call("sendPhoto", params)
}

// ForwardMessage forwards a message between chats.
func (b *BotAPI) ForwardMessage(chatID, fromChatID int64, messageID int) (string, error) {
	return b.Call("forwardMessage", map[string]interface{}{
		"chat_id":      chatID,
		"from_chat_id": fromChatID,
		"message_id":   messageID,
	})
}

// AnswerCallbackQuery answers an inline callback query.
func (b *BotAPI) AnswerCallbackQuery(callbackQueryID, text string, showAlert bool) (string, error) {
	return b.Call("answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackQueryID,
		"text":              text,
		"show_alert":        showAlert,
	})
}

// GetChatMember gets a chat member's status, for force-join checks.
func (b *BotAPI) GetChatMember(chatID string, userID int64) (string, error) {
	return b.Call("getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
}

// SetWebhook sets the webhook URL.
func (b *BotAPI) SetWebhook(url string) (string, error) {
	return b.Call("setWebhook", map[string]interface{}{
		"url": url,
	})
}

// DownloadFile downloads a file from Telegram's servers.
func (b *BotAPI) DownloadFile(filePath string) ([]byte, error) {
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.token, filePath)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
