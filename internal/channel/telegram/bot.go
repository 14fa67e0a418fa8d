// Package telegram bridges Telegram chats onto the agent. A chat is
// anonymous until the user links it with a verification code from their
// dashboard; after that every message is handled as that platform user.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/agent"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

const channelName = "telegram"

type Bot struct {
	api    *tgbotapi.BotAPI
	agent  *agent.Agent
	links  storage.ChannelLinkStore
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[int64]string // chat id -> session token
}

func New(token string, a *agent.Agent, links storage.ChannelLinkStore, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{
		api:      api,
		agent:    a,
		links:    links,
		logger:   logger,
		sessions: make(map[int64]string),
	}, nil
}

// Start long-polls for updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := message.Text
	if message.Caption != "" {
		text = message.Caption
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	reply, err := b.agent.Handle(ctx, &agent.Inbound{
		Text:         text,
		UserID:       b.linkedUser(ctx, message.Chat.ID),
		SessionToken: b.sessionToken(message.Chat.ID),
		Channel:      channelName,
	})
	if err != nil {
		b.logger.Error("telegram message handling failed",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendText(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}

	b.rememberSession(message.Chat.ID, reply.SessionToken)
	b.sendReply(message.Chat.ID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "help":
		b.handleHelp(message)
	case "link":
		b.handleLink(ctx, message)
	default:
		b.sendText(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	welcome := `Welcome to WantokJobs! 👋 I'm Jean, your job search assistant.

Just tell me what you're looking for — "find driver jobs in Lae", "update my profile", "check my applications" — and I'll take it from there.

If you have a WantokJobs account, link it with /link <code> (get your code from the dashboard).`

	if b.linkedUser(ctx, message.Chat.ID) != 0 {
		welcome = "Welcome back! 👋 Your account is linked — just tell me what you need."
	}
	b.sendText(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Here's what I can do:
/start - Start chatting with Jean
/link <code> - Link your WantokJobs account
/help - Show this message

Or just type naturally:
• "find jobs in Port Moresby"
• "apply to job 42"
• "check my applications"
• "post a job" (employers)`

	b.sendText(message.Chat.ID, help)
}

func (b *Bot) handleLink(ctx context.Context, message *tgbotapi.Message) {
	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		b.sendText(message.Chat.ID, "Usage: /link <code> — get your code from your WantokJobs dashboard.")
		return
	}

	user, err := b.links.UserByVerificationCode(ctx, code)
	if err != nil {
		if err == storage.ErrNotFound {
			b.sendText(message.Chat.ID, "That code doesn't match any account. Check your dashboard and try again.")
			return
		}
		b.logger.Error("verification code lookup failed", zap.Error(err))
		b.sendText(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}

	link := &models.ChannelLink{
		Channel:  channelName,
		Address:  fmt.Sprintf("%d", message.Chat.ID),
		UserID:   user.ID,
		Verified: true,
	}
	if err := b.links.LinkChannelAddress(ctx, link); err != nil {
		b.logger.Error("channel link failed",
			zap.Error(err),
			zap.Int64("user_id", user.ID),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendText(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}

	b.logger.Info("telegram chat linked",
		zap.Int64("user_id", user.ID),
		zap.Int64("chat_id", message.Chat.ID))
	b.sendText(message.Chat.ID, fmt.Sprintf("✅ Linked! Hi %s, you're all set. What can I help you with?", user.Name))
}

// linkedUser resolves the chat to a platform user, 0 when unlinked.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) int64 {
	link, err := b.links.ChannelLink(ctx, channelName, fmt.Sprintf("%d", chatID))
	if err != nil || !link.Verified {
		return 0
	}
	return link.UserID
}

func (b *Bot) sessionToken(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) rememberSession(chatID int64, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = token
}

// sendReply renders quick replies as a one-time keyboard so tapping a
// suggestion sends it back as a normal message.
func (b *Bot) sendReply(chatID int64, reply *agent.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if len(reply.QuickReplies) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.QuickReplies))
		for _, qr := range reply.QuickReplies {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(qr)))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = true
		msg.ReplyMarkup = kb
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := b.api.Send(msg); err != nil {
		// Job cards carry markdown that Telegram occasionally rejects;
		// retry as plain text rather than dropping the reply.
		msg.ParseMode = ""
		if _, perr := b.api.Send(msg); perr != nil {
			b.logger.Error("failed to send telegram reply",
				zap.Error(perr),
				zap.Int64("chat_id", chatID))
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send telegram message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
