package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/dialog"
	"github.com/eladw/parkbot/internal/telegram"
)

// secretHeader is the header Telegram echoes the webhook secret in.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler receives Telegram update deliveries and feeds them to
// the dialog machine.  The webhook always acknowledges with 200 once
// the update is syntactically valid; dialog outcomes, including user
// errors, are delivered out-of-band through the gateway.
type WebhookHandler struct {
	Machine *dialog.Machine
	Secret  string // expected secret token, "" disables the check
	Log     *zap.Logger
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(machine *dialog.Machine, secret string, log *zap.Logger) *WebhookHandler {
	if machine == nil {
		panic("nil dialog machine passed to NewWebhookHandler")
	}
	return &WebhookHandler{Machine: machine, Secret: secret, Log: log}
}

// Handle processes POST /webhook.  With a secret configured, requests
// missing the matching header are rejected before the body is read;
// the comparison is constant-time.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.Secret != "" {
		got := c.Request().Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			return c.NoContent(http.StatusUnauthorized)
		}
	}
	var upd tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&upd); err != nil {
		h.Log.Warn("undecodable webhook body", zap.Error(err))
		return c.NoContent(http.StatusBadRequest)
	}
	if in, ok := telegram.ToInbound(upd); ok {
		// Handled synchronously: dialog work is in-memory map access plus
		// best-effort sends, well within Telegram's delivery timeout.
		h.Machine.HandleInbound(in)
	}
	return c.NoContent(http.StatusOK)
}
