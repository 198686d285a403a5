package dialog

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/repository"
)

// handleAdminCommand dispatches the administrator command surface.  The
// caller has already verified admin membership; commands from anyone
// else never reach this function and fall through to the generic
// fallback, so their existence is not revealed.  Returns false for
// slash commands that are not admin commands so normal routing
// continues.
func (m *Machine) handleAdminCommand(user model.User, text string) bool {
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/addphone":
		m.adminAddPhone(user, arg)
	case "/delphone":
		m.adminDelPhone(user, arg)
	case "/listallowedphones":
		m.adminListAllowed(user)
	case "/listuserphones":
		m.adminListUserPhones(user)
	case "/reset_all_slots":
		m.eng.ResetAll()
		m.sched.CancelIfMatching(func(model.ReminderJob) bool { return true })
		m.send(Outbound{UserID: user.ID, Text: "✅ All parking yards have been reset."})
	case "/clearphones":
		m.adminClearPhones(user)
	default:
		return false
	}
	return true
}

func (m *Machine) adminAddPhone(user model.User, arg string) {
	phone := m.norm.Normalize(arg)
	if phone == "" {
		m.send(Outbound{UserID: user.ID, Text: "Usage: /addphone <digits>"})
		return
	}
	err := m.allow.Add(phone)
	switch {
	case errors.Is(err, repository.ErrAlreadyPresent):
		m.send(Outbound{UserID: user.ID, Text: fmt.Sprintf("%s is already on the allow-list.", phone)})
	case err != nil:
		m.log.Error("allow-list add failed", zap.String("phone", phone), zap.Error(err))
		m.send(Outbound{UserID: user.ID, Text: "❌ Failed to update the allow-list."})
	default:
		m.send(Outbound{UserID: user.ID, Text: fmt.Sprintf("✅ %s added to the allow-list.", phone)})
	}
}

func (m *Machine) adminDelPhone(user model.User, arg string) {
	phone := m.norm.Normalize(arg)
	if phone == "" {
		m.send(Outbound{UserID: user.ID, Text: "Usage: /delphone <digits>"})
		return
	}
	err := m.allow.Remove(phone)
	switch {
	case errors.Is(err, repository.ErrPhoneNotFound):
		m.send(Outbound{UserID: user.ID, Text: fmt.Sprintf("%s is not on the allow-list.", phone)})
	case err != nil:
		m.log.Error("allow-list remove failed", zap.String("phone", phone), zap.Error(err))
		m.send(Outbound{UserID: user.ID, Text: "❌ Failed to update the allow-list."})
	default:
		m.send(Outbound{UserID: user.ID, Text: fmt.Sprintf("✅ %s removed from the allow-list.", phone)})
	}
}

func (m *Machine) adminListAllowed(user model.User) {
	phones := m.allow.All()
	if len(phones) == 0 {
		m.send(Outbound{UserID: user.ID, Text: "The allow-list is empty."})
		return
	}
	m.send(Outbound{UserID: user.ID, Text: "Allowed phones:\n" + strings.Join(phones, "\n")})
}

func (m *Machine) adminListUserPhones(user model.User) {
	ids := m.phones.UserIDs()
	if len(ids) == 0 {
		m.send(Outbound{UserID: user.ID, Text: "No phone records stored."})
		return
	}
	all := m.phones.All()
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("%d: %s", id, all[id]))
	}
	m.send(Outbound{UserID: user.ID, Text: "User phones:\n" + strings.Join(lines, "\n")})
}

func (m *Machine) adminClearPhones(user model.User) {
	if err := m.phones.Clear(); err != nil {
		m.log.Error("clear phone records failed", zap.Error(err))
		m.send(Outbound{UserID: user.ID, Text: "❌ Failed to clear phone records."})
		return
	}
	m.send(Outbound{UserID: user.ID, Text: "✅ All phone records cleared."})
}
