package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/auth"
	"github.com/eladw/parkbot/internal/dialog"
	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/registry"
	"github.com/eladw/parkbot/internal/repository"
	"github.com/eladw/parkbot/internal/scheduler"
)

type nopMessenger struct{}

func (nopMessenger) Send(dialog.Outbound) error { return nil }

func newTestHandler(t *testing.T, secret string) *WebhookHandler {
	t.Helper()
	reg, err := registry.New([]model.Yard{{
		Name:          "A",
		Blocks:        map[model.SlotID][]model.SlotID{1: {}},
		ChargingSlots: map[model.SlotID]bool{},
	}})
	require.NoError(t, err)
	dir := t.TempDir()
	phones, err := repository.NewPhoneRepo(dir)
	require.NoError(t, err)
	allow, err := repository.NewAllowListRepo(dir)
	require.NoError(t, err)
	logger := zap.NewNop()
	eng := engine.New(reg, logger)
	sched := scheduler.New(eng, logger, func(model.ReminderJob) {})
	t.Cleanup(sched.Stop)
	machine := dialog.New(dialog.Deps{
		Registry:      reg,
		Engine:        eng,
		Gate:          auth.NewGate(phones, allow, nil),
		Phones:        phones,
		AllowList:     allow,
		Scheduler:     sched,
		Normalizer:    auth.Normalizer{CountryCode: "972", TrunkPrefix: "0"},
		Messenger:     nopMessenger{},
		Logger:        logger,
		ReminderAfter: time.Minute,
	})
	return NewWebhookHandler(machine, secret, logger)
}

func post(t *testing.T, h *WebhookHandler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	return rec
}

const sampleUpdate = `{"update_id":1,"message":{"message_id":1,"from":{"id":5,"is_bot":false,"first_name":"X"},"chat":{"id":5,"type":"private"},"date":1,"text":"/start"}}`

func TestWebhookAcknowledgesValidUpdate(t *testing.T) {
	h := newTestHandler(t, "")
	rec := post(t, h, sampleUpdate, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsBadBody(t *testing.T) {
	h := newTestHandler(t, "")
	rec := post(t, h, "{not json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookIgnoresMessagelessUpdate(t *testing.T) {
	h := newTestHandler(t, "")
	rec := post(t, h, `{"update_id":2}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSecretCheck(t *testing.T) {
	h := newTestHandler(t, "s3cret")

	rec := post(t, h, sampleUpdate, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h, sampleUpdate, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h, sampleUpdate, "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
}
