// Package dialog is the per-user conversation controller.  It routes
// every inbound message by the user's current dialog state, consults
// the authorization gate before any parking feature, drives the
// reservation engine, and emits all outbound messages through the
// Messenger interface so the chat transport stays swappable.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/auth"
	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/queue"
	"github.com/eladw/parkbot/internal/registry"
	"github.com/eladw/parkbot/internal/repository"
	"github.com/eladw/parkbot/internal/scheduler"
	queue_publisher "github.com/eladw/parkbot/internal/service"
)

// Contact is a phone-share payload attached to an inbound event.
type Contact struct {
	UserID int64  // owner of the shared contact
	Phone  string // raw phone as delivered by the transport
}

// Inbound is one user event delivered by the messaging gateway.
type Inbound struct {
	User    model.User
	Text    string
	Contact *Contact // non-nil when the user shared a contact
}

// Outbound is one message for the gateway to deliver.  Menu carries
// reply keyboard rows; RequestContact asks the gateway to render its
// native share-contact button instead.  RemoveMenu clears the keyboard.
type Outbound struct {
	UserID         int64
	Text           string
	Menu           [][]string
	RequestContact bool
	RemoveMenu     bool
	OneTime        bool
}

// Messenger delivers outbound messages.  Delivery is best-effort; the
// machine logs failures and never lets them abort the triggering
// operation.
type Messenger interface {
	Send(out Outbound) error
}

// Machine holds every user's dialog state and all collaborators needed
// to act on their messages.  One Machine serves all users; per-user
// state lives in the sessions map under the machine's mutex.
type Machine struct {
	mu       sync.Mutex
	sessions map[int64]model.DialogState

	reg    *registry.Registry
	eng    *engine.Engine
	gate   *auth.Gate
	phones *repository.PhoneRepo
	allow  *repository.AllowListRepo
	sched  *scheduler.Scheduler
	norm   auth.Normalizer
	out    Messenger
	log    *zap.Logger

	reminderAfter time.Duration
	eventsEnabled bool
}

// Deps bundles the machine's collaborators for construction.
type Deps struct {
	Registry      *registry.Registry
	Engine        *engine.Engine
	Gate          *auth.Gate
	Phones        *repository.PhoneRepo
	AllowList     *repository.AllowListRepo
	Scheduler     *scheduler.Scheduler
	Normalizer    auth.Normalizer
	Messenger     Messenger
	Logger        *zap.Logger
	ReminderAfter time.Duration
	EventsEnabled bool
}

// New constructs a Machine with empty sessions.
func New(d Deps) *Machine {
	return &Machine{
		sessions:      make(map[int64]model.DialogState),
		reg:           d.Registry,
		eng:           d.Engine,
		gate:          d.Gate,
		phones:        d.Phones,
		allow:         d.AllowList,
		sched:         d.Scheduler,
		norm:          d.Normalizer,
		out:           d.Messenger,
		log:           d.Logger,
		reminderAfter: d.ReminderAfter,
		eventsEnabled: d.EventsEnabled,
	}
}

// state returns the user's current dialog state, Idle by default.
func (m *Machine) state(userID int64) model.DialogState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// setState transitions the user's dialog.  Idle is stored by deletion
// so the map only holds users mid-flow.
func (m *Machine) setState(userID int64, s model.DialogState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == model.StateIdle {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = s
}

// HandleInbound processes one inbound event.  Events for different
// users may arrive concurrently; all shared state is behind the
// machine's, engine's and repositories' own locks.
func (m *Machine) HandleInbound(in Inbound) {
	text := strings.TrimSpace(in.Text)

	// Contact payloads only mean something while we are waiting for one.
	if in.Contact != nil && m.state(in.User.ID) == model.StateAwaitingPhone {
		m.receivePhone(in.User, in.Contact)
		return
	}

	switch m.state(in.User.ID) {
	case model.StateSelectingYard:
		m.setYard(in.User, text)
	case model.StateAwaitingPhone:
		// Any text, including cancel, ends the phone flow.
		m.setState(in.User.ID, model.StateIdle)
		m.send(Outbound{UserID: in.User.ID, Text: "❌ Phone sharing cancelled.", Menu: m.menuFor(in.User.ID)})
	case model.StateAwaitingSlotInput:
		m.handleSlotInput(in.User, text)
	default:
		m.handleIdle(in.User, text)
	}
}

// handleIdle interprets a message from a user with no flow in progress.
func (m *Machine) handleIdle(user model.User, text string) {
	if strings.HasPrefix(text, "/") && m.gate.IsAdmin(user.ID) {
		if m.handleAdminCommand(user, text) {
			return
		}
	}

	switch {
	case text == "/start":
		m.send(Outbound{UserID: user.ID, Text: m.greeting(user.ID), Menu: m.menuFor(user.ID)})
	case text == LabelChooseYard || text == "/chooseyard":
		m.startYardSelection(user)
	case text == LabelSharePhone || text == "/sharephone":
		m.startPhoneShare(user)
	case text == LabelPark || text == "/park":
		m.startParking(user)
	case text == LabelLeave || text == "/leave":
		m.leave(user)
	case text == LabelStatus || text == "/status":
		m.status(user)
	default:
		m.fallback(user)
	}
}

// greeting is the /start message body for the user's tier.
func (m *Machine) greeting(userID int64) string {
	if m.gate.AccessTier(userID) == model.TierPendingApproval {
		return "⏳ Your phone number is awaiting administrator approval."
	}
	return "👋 Welcome! Choose an option below:"
}

// requireApproved enforces the access gate for parking features.  It
// sends the appropriate redirect and returns false when the user may
// not proceed.  Command and menu-button entry points share this single
// check, so the policy is uniform.
func (m *Machine) requireApproved(user model.User) bool {
	switch m.gate.AccessTier(user.ID) {
	case model.TierNoPhone:
		m.send(Outbound{UserID: user.ID, Text: "📱 Please share your phone number first.", Menu: m.menuFor(user.ID)})
		return false
	case model.TierPendingApproval:
		m.send(Outbound{UserID: user.ID, Text: "⏳ Your phone number is awaiting administrator approval.", RemoveMenu: true})
		return false
	}
	return true
}

// requireYard returns the user's selected yard, or prompts for one.
func (m *Machine) requireYard(user model.User) (string, bool) {
	yard, ok := m.eng.SelectedYard(user.ID)
	if !ok {
		m.send(Outbound{UserID: user.ID, Text: "⚠️ Please choose a parking yard first.", Menu: m.menuFor(user.ID)})
	}
	return yard, ok
}

// startYardSelection: Idle → SelectingYard.
func (m *Machine) startYardSelection(user model.User) {
	if !m.requireApproved(user) {
		return
	}
	m.setState(user.ID, model.StateSelectingYard)
	m.send(Outbound{
		UserID:  user.ID,
		Text:    "🏢 Choose a parking yard:",
		Menu:    yardMenu(m.reg.YardNames()),
		OneTime: true,
	})
}

// setYard: SelectingYard → Idle on any input.  A valid yard name is
// recorded; anything else (including cancel) just ends the flow.
func (m *Machine) setYard(user model.User, text string) {
	m.setState(user.ID, model.StateIdle)
	if text == LabelCancel {
		m.send(Outbound{UserID: user.ID, Text: "❌ Cancelled.", Menu: m.menuFor(user.ID)})
		return
	}
	if err := m.eng.SelectYard(user.ID, text); err != nil {
		m.send(Outbound{UserID: user.ID, Text: "❌ Invalid yard selection.", Menu: m.menuFor(user.ID)})
		return
	}
	m.send(Outbound{UserID: user.ID, Text: fmt.Sprintf("✅ You're now using %s.", text), Menu: m.menuFor(user.ID)})
}

// startPhoneShare: Idle → AwaitingPhone, unless a phone is stored.
func (m *Machine) startPhoneShare(user model.User) {
	if _, ok := m.phones.Get(user.ID); ok {
		m.send(Outbound{UserID: user.ID, Text: "✅ Your phone number is already saved!", Menu: m.menuFor(user.ID)})
		return
	}
	m.setState(user.ID, model.StateAwaitingPhone)
	m.send(Outbound{
		UserID:         user.ID,
		Text:           "📱 Tap the button to share your phone number:",
		RequestContact: true,
		OneTime:        true,
	})
}

// receivePhone: AwaitingPhone → Idle with the contact normalized and
// persisted.  A contact forwarded from someone else's card is refused:
// the allow-list would otherwise gate on a phone the user does not own.
func (m *Machine) receivePhone(user model.User, contact *Contact) {
	m.setState(user.ID, model.StateIdle)
	if contact.UserID != 0 && contact.UserID != user.ID {
		m.send(Outbound{UserID: user.ID, Text: "❌ Please share your own contact.", Menu: m.menuFor(user.ID)})
		return
	}
	phone := m.norm.Normalize(contact.Phone)
	if phone == "" {
		m.send(Outbound{UserID: user.ID, Text: "❌ That contact has no usable phone number.", Menu: m.menuFor(user.ID)})
		return
	}
	err := m.phones.Set(user.ID, phone)
	switch {
	case errors.Is(err, repository.ErrAlreadyPresent):
		m.send(Outbound{UserID: user.ID, Text: "📱 Your phone number is already saved!", Menu: m.menuFor(user.ID)})
	case err != nil:
		m.log.Error("persist phone failed", zap.Int64("user_id", user.ID), zap.Error(err))
		m.send(Outbound{UserID: user.ID, Text: "❌ Could not save your phone number, please try again.", Menu: m.menuFor(user.ID)})
	default:
		m.send(Outbound{UserID: user.ID, Text: "✅ Phone number saved!", Menu: m.menuFor(user.ID)})
	}
}

// startParking: Idle → AwaitingSlotInput, gated on approval and a
// selected yard.
func (m *Machine) startParking(user model.User) {
	if !m.requireApproved(user) {
		return
	}
	if _, ok := m.requireYard(user); !ok {
		return
	}
	m.setState(user.ID, model.StateAwaitingSlotInput)
	m.send(Outbound{
		UserID:  user.ID,
		Text:    "📝 Please enter your parking slot number:",
		Menu:    cancelMenu(),
		OneTime: true,
	})
}

// handleSlotInput processes one message during AwaitingSlotInput.
// Validation failures re-prompt and keep the state; a committed or
// conflicting claim ends the dialog either way.
func (m *Machine) handleSlotInput(user model.User, text string) {
	if text == LabelCancel {
		m.setState(user.ID, model.StateIdle)
		m.send(Outbound{UserID: user.ID, Text: "❌ Parking cancelled.", Menu: m.menuFor(user.ID)})
		return
	}
	yard, ok := m.eng.SelectedYard(user.ID)
	if !ok {
		// Selection vanished mid-flow (daily reset); restart from the menu.
		m.setState(user.ID, model.StateIdle)
		m.send(Outbound{UserID: user.ID, Text: "⚠️ Please choose a parking yard first.", Menu: m.menuFor(user.ID)})
		return
	}
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		m.send(Outbound{UserID: user.ID, Text: "❌ Please enter a valid number.", Menu: cancelMenu(), OneTime: true})
		return
	}
	slot := model.SlotID(n)
	if !m.reg.IsValidSlot(yard, slot) {
		m.send(Outbound{UserID: user.ID, Text: "❌ Invalid slot number for this yard.", Menu: cancelMenu(), OneTime: true})
		return
	}

	phone, _ := m.phones.Get(user.ID)
	result, err := m.eng.Claim(yard, slot, user, phone)
	if err != nil {
		m.setState(user.ID, model.StateIdle)
		m.reportClaimError(user, err)
		return
	}
	m.setState(user.ID, model.StateIdle)
	m.commitClaim(user, phone, result)
}

// reportClaimError translates an engine rejection into a user message.
func (m *Machine) reportClaimError(user model.User, err error) {
	var already *engine.AlreadyParkedError
	switch {
	case errors.As(err, &already):
		m.send(Outbound{
			UserID: user.ID,
			Text:   fmt.Sprintf("❌ You are already parked in slot %d of %s. Please leave first.", already.Slot, already.Yard),
			Menu:   m.menuFor(user.ID),
		})
	case errors.Is(err, engine.ErrSlotTaken):
		m.send(Outbound{UserID: user.ID, Text: "❌ That slot is already taken. Try another.", Menu: m.menuFor(user.ID)})
	default:
		m.send(Outbound{UserID: user.ID, Text: "❌ Invalid slot number for this yard.", Menu: m.menuFor(user.ID)})
	}
}

// commitClaim finishes a successful claim: confirmation, blocking
// notifications in both directions, the charging reminder, and the
// best-effort broker event.
func (m *Machine) commitClaim(user model.User, phone string, result engine.ClaimResult) {
	m.send(Outbound{
		UserID: user.ID,
		Text:   fmt.Sprintf("✅ %s, you parked in slot %d of %s.", user.DisplayName, result.Slot, result.Yard),
		Menu:   m.menuFor(user.ID),
	})
	for _, blocked := range result.Blocking {
		m.send(Outbound{
			UserID: blocked.Reservation.UserID,
			Text: fmt.Sprintf("🚧 You're blocked by %s in slot %d.\n📱 Phone: %s",
				user.DisplayName, result.Slot, phoneOrFallback(phone)),
		})
		m.send(Outbound{
			UserID: user.ID,
			Text: fmt.Sprintf("⚠️ You are blocking %s in slot %d.\n📱 Phone: %s",
				blocked.Reservation.DisplayName, blocked.Slot, phoneOrFallback(blocked.Reservation.Phone)),
		})
	}
	if result.Charging {
		m.sched.Schedule(model.ReminderJob{
			UserID:   user.ID,
			Slot:     result.Slot,
			YardName: result.Yard,
			FireAt:   result.StartedAt.Add(m.reminderAfter),
		})
	}
	m.publishEvent(queue.SlotEvent{
		Kind:     queue.KindClaimed,
		Yard:     result.Yard,
		Slot:     int(result.Slot),
		UserID:   user.ID,
		UserName: user.DisplayName,
		Charging: result.Charging,
		At:       result.StartedAt.UTC().Format(time.RFC3339),
	})
}

// leave releases the user's slot in their selected yard and notifies
// everyone the released slot was obstructing.
func (m *Machine) leave(user model.User) {
	if !m.requireApproved(user) {
		return
	}
	yard, ok := m.requireYard(user)
	if !ok {
		return
	}
	result, err := m.eng.Release(yard, user.ID)
	if err != nil {
		m.send(Outbound{UserID: user.ID, Text: "❌ You're not parked in any slot.", Menu: m.menuFor(user.ID)})
		return
	}
	m.send(Outbound{
		UserID: user.ID,
		Text:   fmt.Sprintf("👋 %s, you've left slot %d in %s. It is now available.", user.DisplayName, result.Slot, result.Yard),
		Menu:   m.menuFor(user.ID),
	})
	for _, freed := range result.Unblocked {
		m.send(Outbound{
			UserID: freed.Reservation.UserID,
			Text:   fmt.Sprintf("🚧 Slot %d is now available.", result.Slot),
		})
	}
	m.publishEvent(queue.SlotEvent{
		Kind:     queue.KindReleased,
		Yard:     result.Yard,
		Slot:     int(result.Slot),
		UserID:   user.ID,
		UserName: user.DisplayName,
		Charging: m.reg.IsCharging(result.Yard, result.Slot),
		At:       time.Now().UTC().Format(time.RFC3339),
	})
}

// status renders the selected yard's occupancy.
func (m *Machine) status(user model.User) {
	if !m.requireApproved(user) {
		return
	}
	yard, ok := m.requireYard(user)
	if !ok {
		return
	}
	free, taken, err := m.eng.Status(yard)
	if err != nil {
		m.send(Outbound{UserID: user.ID, Text: "❌ Invalid yard selection.", Menu: m.menuFor(user.ID)})
		return
	}
	m.send(Outbound{UserID: user.ID, Text: statusText(yard, free, taken), Menu: m.menuFor(user.ID)})
}

// fallback handles unrecognized idle input: users without a yard are
// steered to yard selection, everyone else gets the generic reply.
// Unrecognized admin-looking commands land here too, so non-admins see
// nothing that reveals the admin surface.
func (m *Machine) fallback(user model.User) {
	if _, ok := m.eng.SelectedYard(user.ID); !ok {
		m.send(Outbound{UserID: user.ID, Text: "⚠️ Please choose a yard first:", Menu: m.menuFor(user.ID)})
		return
	}
	m.send(Outbound{UserID: user.ID, Text: "❓ I didn't understand that. Please choose an option from the menu.", Menu: m.menuFor(user.ID)})
}

// menuFor builds the main menu for the user's current tier and yard.
func (m *Machine) menuFor(userID int64) [][]string {
	_, hasYard := m.eng.SelectedYard(userID)
	return MainMenu(m.gate.AccessTier(userID), hasYard)
}

// send delivers one outbound message, logging failures.  A failed
// notification to one recipient never affects the others or the
// operation that produced it.
func (m *Machine) send(out Outbound) {
	if err := m.out.Send(out); err != nil {
		m.log.Warn("notification failed",
			zap.Int64("user_id", out.UserID),
			zap.Error(err))
	}
}

// publishEvent hands a slot event to the broker on a background
// goroutine.  Publishing is best-effort and bounded by a timeout.
func (m *Machine) publishEvent(ev queue.SlotEvent) {
	if !m.eventsEnabled {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSlotEvent(ctx, ev)
	}()
}
