package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SLACK MESSAGE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Message is the incoming-webhook payload.
type Message struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is a layout block. Only section blocks are produced.
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// TextObject is a mrkdwn or plain_text object.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func section(text string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: text}}
}

// ══════════════════════════════════════════════════════════════════════════════
// PHASE LABELS
// ══════════════════════════════════════════════════════════════════════════════

// PhaseLabel returns the short label used in reminders ("Fas 2").
func PhaseLabel(p schedule.Phase) string {
	return "Fas " + strings.TrimPrefix(string(p), "PHASE_")
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDERS
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineReminder builds the reminder sent 7 days and 1 day before a deadline.
func DeadlineReminder(studentName string, deadline time.Time, phase schedule.Phase, daysLeft int) Message {
	emoji := "📅"
	switch {
	case daysLeft <= 1:
		emoji = "🚨"
	case daysLeft <= 7:
		emoji = "⚠️"
	}
	unit := "dagar"
	if daysLeft == 1 {
		unit = "dag"
	}
	return Message{Blocks: []Block{
		section(emoji + " *Deadline-påminnelse*"),
		section(fmt.Sprintf("*%s* har deadline för *%s* om *%d %s*\n📆 Deadline: %s",
			studentName, PhaseLabel(phase), daysLeft, unit, timeutil.FormatDate(deadline))),
	}}
}

// PlacementDecision builds the LIA approved / rejected announcement.
func PlacementDecision(studentName, companyName string, approved bool) Message {
	emoji, action := "❌", "avvisad"
	if approved {
		emoji, action = "✅", "godkänd"
	}
	return Message{Blocks: []Block{
		section(fmt.Sprintf("%s *LIA-plats %s*", emoji, action)),
		section(fmt.Sprintf("*%s* LIA-ansökan hos *%s* har blivit *%s*", studentName, companyName, action)),
	}}
}

// MilestoneCompleted builds the milestone announcement with total progress.
func MilestoneCompleted(studentName, milestoneName string, progressPercent int) Message {
	return Message{Blocks: []Block{
		section("🎉 *Moment avklarat*"),
		section(fmt.Sprintf("*%s* har avklarat *%s*\n📈 Total progression: %d%%", studentName, milestoneName, progressPercent)),
	}}
}

// TestMessage verifies the webhook integration.
func TestMessage() Message {
	return Message{
		Text:   "🧪 Testmeddelande från ChasCareer!",
		Blocks: []Block{section("🧪 *Testmeddelande*\nSlack-integrationen fungerar!")},
	}
}

// BuildMessage formats a notification for Slack.
func BuildMessage(n *notification.Notification) (Message, error) {
	if err := n.Validate(); err != nil {
		return Message{}, err
	}
	switch n.Type {
	case notification.NotificationTypeDeadlineReminder:
		return DeadlineReminder(n.StudentName, n.Data.Deadline, n.Data.Phase, n.Data.DaysLeft), nil
	case notification.NotificationTypePlacementDecision:
		return PlacementDecision(n.StudentName, n.Data.CompanyName, n.Data.Approved), nil
	case notification.NotificationTypeMilestoneCompleted:
		return MilestoneCompleted(n.StudentName, n.Data.MilestoneName, n.Data.ProgressPercent), nil
	default:
		return TestMessage(), nil
	}
}
