package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// Main menu button labels. Text routing matches on these exactly.
const (
	btnBuy      = "🛒 خرید اشتراک"
	btnMySeats  = "📦 اشتراک‌های من"
	btnWallet   = "💰 کیف پول"
	btnReferral = "🎁 دعوت دوستان"
	btnSupport  = "📞 پشتیبانی"
)

// KeyboardBuilder builds reply and inline keyboards for bot flows.
type KeyboardBuilder struct{}

func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

func (kb *KeyboardBuilder) MainMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnBuy)),
		menu.Row(menu.Text(btnMySeats), menu.Text(btnWallet)),
		menu.Row(menu.Text(btnReferral), menu.Text(btnSupport)),
	)
	return menu
}

// JoinKeyboard links each required channel plus a re-check button.
func (kb *KeyboardBuilder) JoinKeyboard(channels []string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(channels)+1)
	for _, ch := range channels {
		username := ch
		if len(username) > 0 && username[0] == '@' {
			username = username[1:]
		}
		rows = append(rows, menu.Row(menu.URL("📢 "+ch, "https://t.me/"+username)))
	}
	rows = append(rows, menu.Row(menu.Data("✅ عضو شدم", "check_join")))
	menu.Inline(rows...)
	return menu
}

// PayKeyboard is attached to the payment instructions message.
func (kb *KeyboardBuilder) PayKeyboard(orderID uint) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("❌ انصراف از خرید", fmt.Sprintf("cancel:%d", orderID))),
	)
	return menu
}

// ApprovalKeyboard goes under the forwarded receipt in the approval
// chat.
func (kb *KeyboardBuilder) ApprovalKeyboard(orderID uint) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data("✅ تایید", fmt.Sprintf("approve:%d", orderID)),
			menu.Data("❌ رد", fmt.Sprintf("reject:%d", orderID)),
		),
	)
	return menu
}

// CodeKeyboard lets an approved buyer request a fresh 2FA code.
func (kb *KeyboardBuilder) CodeKeyboard(orderID uint) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("📲 دریافت کد 2FA", fmt.Sprintf("code:%d", orderID))),
	)
	return menu
}

// SeatListKeyboard: one row per approved order.
func (kb *KeyboardBuilder) SeatListKeyboard(orderIDs []uint) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(orderIDs))
	for _, id := range orderIDs {
		rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("📦 اشتراک #%d", id), fmt.Sprintf("seat:%d", id))))
	}
	menu.Inline(rows...)
	return menu
}
