// Package telegram adapts the bot to the Telegram transport.  It is the
// only package that touches tgbotapi types: inbound updates are
// converted to dialog.Inbound and outbound messages rendered from
// dialog.Outbound, so nothing above this layer knows which chat network
// delivers the messages.
package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/dialog"
	"github.com/eladw/parkbot/internal/model"
)

// labelShareContact is the contact-request button caption.
const labelShareContact = "📱 Share my phone"

// Gateway wraps the Telegram Bot API client.
type Gateway struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

// New authenticates against the Bot API with token.
func New(token string, log *zap.Logger) (*Gateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Info("telegram gateway ready", zap.String("bot", bot.Self.UserName))
	return &Gateway{bot: bot, log: log}, nil
}

// RegisterWebhook points Telegram at url.  When secret is non-empty it
// is registered as the webhook secret token, which Telegram then echoes
// in a header on every delivery for the handler to verify.
func (g *Gateway) RegisterWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := g.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// Send renders and delivers one outbound message.
func (g *Gateway) Send(out dialog.Outbound) error {
	msg := tgbotapi.NewMessage(out.UserID, out.Text)
	switch {
	case out.RequestContact:
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(labelShareContact)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(dialog.LabelCancel)),
		)
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = out.OneTime
		msg.ReplyMarkup = kb
	case out.RemoveMenu:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	case len(out.Menu) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(out.Menu))
		for _, row := range out.Menu {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = out.OneTime
		msg.ReplyMarkup = kb
	}
	if _, err := g.bot.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", out.UserID, err)
	}
	return nil
}

// ToInbound converts a webhook update into a dialog event.  Updates
// without a message or sender (edits, channel posts, callback queries)
// are reported as not-ok and dropped by the caller.
func ToInbound(upd tgbotapi.Update) (dialog.Inbound, bool) {
	m := upd.Message
	if m == nil || m.From == nil {
		return dialog.Inbound{}, false
	}
	in := dialog.Inbound{
		User: model.User{
			ID:          m.From.ID,
			DisplayName: displayName(m.From),
		},
		Text: m.Text,
	}
	if m.Contact != nil {
		in.Contact = &dialog.Contact{
			UserID: m.Contact.UserID,
			Phone:  m.Contact.PhoneNumber,
		}
	}
	return in, true
}

// displayName joins first and last name the way Telegram clients do.
func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
