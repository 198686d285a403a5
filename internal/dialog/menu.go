package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/model"
)

// Menu labels.  These exact strings are both rendered as keyboard
// buttons and matched against inbound text, so they live in one place.
const (
	LabelChooseYard = "🏢 Choose Yard"
	LabelPark       = "🅿️ Park"
	LabelLeave      = "🚶 Leave"
	LabelStatus     = "📋 Status"
	LabelSharePhone = "📱 Share Phone"
	LabelCancel     = "❌ Cancel"
)

// MainMenu returns the keyboard rows for a user's tier and yard
// selection.  A nil result means the keyboard should be removed.
func MainMenu(tier model.AccessTier, hasYard bool) [][]string {
	switch tier {
	case model.TierNoPhone:
		return [][]string{{LabelSharePhone}}
	case model.TierPendingApproval:
		return nil
	}
	if !hasYard {
		return [][]string{{LabelChooseYard}}
	}
	return [][]string{
		{LabelPark, LabelLeave},
		{LabelStatus, LabelSharePhone},
		{LabelChooseYard},
	}
}

// yardMenu lists every yard as its own row plus a cancel row.
func yardMenu(names []string) [][]string {
	rows := make([][]string, 0, len(names)+1)
	for _, n := range names {
		rows = append(rows, []string{n})
	}
	return append(rows, []string{LabelCancel})
}

// cancelMenu is the single-button keyboard shown during slot input.
func cancelMenu() [][]string {
	return [][]string{{LabelCancel}}
}

// statusText renders the yard status message: available slot numbers on
// one line, then one line per taken slot with a ⚡ marker and elapsed
// time for charging slots.
func statusText(yard string, free []model.SlotID, taken []engine.TakenSlot) string {
	freeList := "None"
	if len(free) > 0 {
		parts := make([]string, len(free))
		for i, s := range free {
			parts[i] = fmt.Sprintf("%d", s)
		}
		freeList = strings.Join(parts, ", ")
	}
	takenText := "None"
	if len(taken) > 0 {
		lines := make([]string, len(taken))
		for i, t := range taken {
			icon, elapsed := "", ""
			if t.Charging {
				icon = "⚡ "
				elapsed = " (" + formatElapsed(t.Elapsed) + ")"
			}
			lines[i] = fmt.Sprintf("%s%d - %s%s", icon, t.Slot, t.Name, elapsed)
		}
		takenText = strings.Join(lines, "\n")
	}
	return fmt.Sprintf("📋 %s Parking Status:\n\n🟢 Available slots: %s\n\n🔴 Taken slots:\n%s",
		yard, freeList, takenText)
}

// formatElapsed renders a duration as whole hours and minutes, e.g.
// "1h 30m".
func formatElapsed(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// phoneOrFallback substitutes the display text for an unshared phone.
func phoneOrFallback(phone string) string {
	if phone == "" {
		return "No phone shared"
	}
	return phone
}

// ReminderText renders the charging reminder message for a fired job.
func ReminderText(job model.ReminderJob, after time.Duration) string {
	return fmt.Sprintf("⚡ Reminder: You've been in charging slot %d (Yard: %s) for %s. Please free it if you're done charging. 🔌",
		job.Slot, job.YardName, formatElapsed(after))
}
