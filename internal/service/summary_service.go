package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"habit-planner/internal/model"
)

// SummaryService builds the human-readable daily report sent to the chat channel.
type SummaryService struct {
	planner *PlannerService
}

func NewSummaryService(planner *PlannerService) *SummaryService {
	return &SummaryService{planner: planner}
}

func (s *SummaryService) DailySummary(ctx context.Context, user string, now time.Time) (string, error) {
	today := model.DateOf(now)
	items, err := s.planner.List(ctx, model.ItemFilter{User: user, Date: &today})
	if err != nil {
		return "", err
	}
	totals, err := s.planner.Summary(ctx, user)
	if err != nil {
		return "", err
	}

	var pending, done []model.PlannerItem
	earned := 0
	for _, item := range items {
		if item.IsDone {
			done = append(done, item)
			earned += item.XP
			continue
		}
		pending = append(pending, item)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today))

	builder.WriteString("🔥 <b>Open</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, item := range pending {
			builder.WriteString(FormatItemLine(item))
		}
	}

	builder.WriteString("\n✅ <b>Done</b>\n")
	if len(done) == 0 {
		builder.WriteString("— nothing done yet\n")
	} else {
		for _, item := range done {
			builder.WriteString(FormatItemLine(item))
		}
	}

	builder.WriteString(fmt.Sprintf("\n⭐ XP today: %d · all time: %d (%d/%d done)\n", earned, totals.TotalXP, totals.DoneItems, totals.TotalItems))
	return strings.TrimSpace(builder.String()), nil
}

// FormatItemLine renders one item as an HTML line for Telegram.
func FormatItemLine(item model.PlannerItem) string {
	var sb strings.Builder

	icon := "⬜"
	if item.IsDone {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s #%d %s <i>(%s)</i> · %d XP", icon, item.ID, html.EscapeString(strings.TrimSpace(item.TaskName)), html.EscapeString(item.Category), item.XP))

	if details := strings.TrimSpace(item.DetailsText()); details != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(details)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
