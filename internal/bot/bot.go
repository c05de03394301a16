package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"habit-planner/internal/backup"
	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

const (
	cbDonePrefix    = "done:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

const helpText = `📋 <b>Planner commands</b>
/tasks - open items
/today - everything dated today
/add name | category | xp - add an item for today
/done 12 - mark item #12 done
/delete 12 - delete item #12
/sync - export the CSV and push it
/report - today's summary`

var errBadID = errors.New("item id must be a positive number")

// Bot is the chat surface of the planner. It only answers the configured chat.
type Bot struct {
	api     *tgbotapi.BotAPI
	planner *service.PlannerService
	summary *service.SummaryService
	backup  *backup.Service
	chatID  int64
	owner   string
	log     *log.Logger
}

func New(token string, chatID int64, owner string, planner *service.PlannerService, summary *service.SummaryService, backupSvc *backup.Service, lg *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	lg.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:     api,
		planner: planner,
		summary: summary,
		backup:  backupSvc,
		chatID:  chatID,
		owner:   owner,
		log:     lg,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Warn("handle message")
			}
		}
	}
	return nil
}

// SendDailyReport pushes today's summary to the configured chat.
func (b *Bot) SendDailyReport(ctx context.Context) error {
	text, err := b.summary.DailySummary(ctx, b.owner, time.Now())
	if err != nil {
		return fmt.Errorf("build daily report: %w", err)
	}
	return b.sendText(b.chatID, text)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. Try /help.")
	}

	b.log.WithFields(log.Fields{"command": msg.Command(), "args": msg.CommandArguments()}).Info("command received")

	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "tasks":
		return b.sendItemList(ctx, msg.Chat.ID, "Open items", model.ItemFilter{User: b.owner}, true)
	case "today":
		today := model.Today()
		return b.sendItemList(ctx, msg.Chat.ID, "Today", model.ItemFilter{User: b.owner, Date: &today}, false)
	case "add":
		return b.handleAdd(ctx, msg)
	case "done":
		id, err := parseItemID(msg.CommandArguments())
		if err != nil {
			return b.sendText(msg.Chat.ID, "Give me an item id: /done 12")
		}
		return b.markDone(ctx, msg.Chat.ID, id)
	case "delete":
		id, err := parseItemID(msg.CommandArguments())
		if err != nil {
			return b.sendText(msg.Chat.ID, "Give me an item id: /delete 12")
		}
		return b.askDeleteConfirmation(ctx, msg.Chat.ID, id)
	case "sync":
		return b.handleSync(ctx, msg.Chat.ID)
	case "report":
		return b.SendDailyReport(ctx)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	input, err := parseAddArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, html.EscapeString(err.Error())+"\nUsage: /add Drink water | Health | 10")
	}
	input.User = b.owner

	item, err := b.planner.Create(ctx, input)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not add item: %s", html.EscapeString(err.Error())))
	}
	b.log.WithField("id", item.ID).Info("item created from chat")
	return b.sendText(msg.Chat.ID, "➕ Added\n"+service.FormatItemLine(*item))
}

func (b *Bot) handleSync(ctx context.Context, chatID int64) error {
	path, res, err := b.backup.ExportAndSync(ctx, fmt.Sprintf("Sync planner: %s", time.Now().Format(time.RFC3339)))
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Export failed: %s", html.EscapeString(err.Error())))
	}

	text := fmt.Sprintf("💾 Exported to <code>%s</code>\ncommitted: %t · pushed: %t", html.EscapeString(path), res.Committed, res.Pushed)
	if res.Reason != "" {
		text += "\n" + html.EscapeString(res.Reason)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendItemList(ctx context.Context, chatID int64, title string, filter model.ItemFilter, openOnly bool) error {
	items, err := b.planner.List(ctx, filter)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load items: %s", html.EscapeString(err.Error())))
	}

	text, markup := renderItemList(title, items, openOnly)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err = b.api.Send(msg)
	return err
}

// renderItemList builds the message body and one row of buttons per open item.
func renderItemList(title string, items []model.PlannerItem, openOnly bool) (string, *tgbotapi.InlineKeyboardMarkup) {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>%s</b>\n\n", html.EscapeString(title)))

	var rows [][]tgbotapi.InlineKeyboardButton
	shown := 0
	for _, item := range items {
		if openOnly && item.IsDone {
			continue
		}
		shown++
		builder.WriteString(service.FormatItemLine(item))
		if item.IsDone {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", item.ID, shortTitle(item.TaskName, 24)), callbackData(cbDonePrefix, item.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callbackData(cbDeletePrefix, item.ID)),
		))
	}

	if shown == 0 {
		builder.WriteString("Nothing here. Add something with /add.")
	}
	if len(rows) == 0 {
		return strings.TrimSpace(builder.String()), nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(builder.String()), &markup
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}

	prefix, id, err := parseCallback(cb.Data)
	if err != nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	b.log.WithFields(log.Fields{"action": strings.TrimSuffix(prefix, ":"), "id": id}).Info("callback received")

	switch prefix {
	case cbDonePrefix:
		return b.markDone(ctx, chatID, id)
	case cbDeletePrefix:
		return b.askDeleteConfirmation(ctx, chatID, id)
	case cbConfirmPrefix:
		return b.deleteItem(ctx, chatID, id)
	case cbCancelPrefix:
		return b.sendText(chatID, "↩️ Kept it.")
	}
	return nil
}

func (b *Bot) markDone(ctx context.Context, chatID int64, id uint) error {
	done := true
	item, found, err := b.planner.Update(ctx, id, model.ItemPatch{IsDone: &done})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	if !found {
		return b.sendText(chatID, "Item not found.")
	}
	b.log.WithField("id", id).Info("item completed from chat")
	return b.sendText(chatID, fmt.Sprintf("✅ %s done, +%d XP", html.EscapeString(item.TaskName), item.XP))
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, id uint) error {
	item, found, err := b.planner.Get(ctx, id)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	if !found {
		return b.sendText(chatID, "Item not found.")
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete %q (#%d)?", html.EscapeString(item.TaskName), item.ID))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = confirmKeyboard(item.ID)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) deleteItem(ctx context.Context, chatID int64, id uint) error {
	deleted, err := b.planner.Delete(ctx, id)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	if !deleted {
		return b.sendText(chatID, "Item was already deleted.")
	}
	b.log.WithField("id", id).Info("item deleted from chat")
	return b.sendText(chatID, fmt.Sprintf("🗑 Item #%d deleted.", id))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func confirmKeyboard(id uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Delete", callbackData(cbConfirmPrefix, id)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Cancel", callbackData(cbCancelPrefix, id)),
	))
}

func callbackData(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func parseCallback(data string) (string, uint, error) {
	for _, prefix := range []string{cbDonePrefix, cbDeletePrefix, cbConfirmPrefix, cbCancelPrefix} {
		if strings.HasPrefix(data, prefix) {
			id, err := parseItemID(strings.TrimPrefix(data, prefix))
			return prefix, id, err
		}
	}
	return "", 0, fmt.Errorf("unknown callback %q", data)
}

func parseItemID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || value == 0 {
		return 0, errBadID
	}
	return uint(value), nil
}

// parseAddArgs reads "name | category | xp". Category and xp are optional.
func parseAddArgs(args string) (model.ItemInput, error) {
	parts := strings.Split(args, "|")

	name, err := model.CheckTaskName(parts[0])
	if err != nil {
		return model.ItemInput{}, err
	}
	input := model.ItemInput{
		Date:     model.Today(),
		Category: model.CategoryOther,
		TaskName: name,
	}

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		input.Category = model.NormalizeCategory(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		xp, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return model.ItemInput{}, fmt.Errorf("xp must be a whole number")
		}
		input.XP = model.ClampXP(xp)
	}
	if len(parts) > 3 {
		return model.ItemInput{}, fmt.Errorf("too many fields")
	}
	return input, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	return string(runes[:maxLen-1]) + "…"
}
