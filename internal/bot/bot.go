// Package bot is a Telegram front end for word and verb drills.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/models"
	"deutschdrill/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender delivers messages to a chat
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Drill is the flashcard loop the bot drives
type Drill interface {
	Next(ctx context.Context, userID int64, kind models.ItemKind) (*service.PresentedItem, error)
	Pending(ctx context.Context, userID int64, kind models.ItemKind) (*service.PresentedItem, error)
	GradeWord(ctx context.Context, userID, wordID int64, answer string, direction models.Direction) (*service.GradeResult, error)
	GradeVerb(ctx context.Context, userID, verbID int64, answers grading.VerbAnswers) (*service.VerbGradeResult, error)
}

// Accounts links chats to users
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// ChatUsers stores the chat binding
type ChatUsers interface {
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	SetTelegramChatID(ctx context.Context, userID, chatID int64) error
}

// Stats reports learning progress
type Stats interface {
	Overview(ctx context.Context, userID int64, now time.Time) (*models.ProgressOverview, error)
}

// Bot answers Telegram messages
type Bot struct {
	sender   Sender
	drill    Drill
	accounts Accounts
	users    ChatUsers
	stats    Stats
	logger   *zap.Logger

	mu       sync.Mutex
	lastKind map[int64]models.ItemKind
}

// New creates a bot that replies through sender
func New(sender Sender, drill Drill, accounts Accounts, users ChatUsers, stats Stats, logger *zap.Logger) *Bot {
	return &Bot{
		sender:   sender,
		drill:    drill,
		accounts: accounts,
		users:    users,
		stats:    stats,
		logger:   logger,
		lastKind: make(map[int64]models.ItemKind),
	}
}

// Run polls for updates until ctx is cancelled
func Run(ctx context.Context, api *tgbotapi.BotAPI, b *Bot) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	b.logger.Info("telegram bot started", zap.String("account", api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage dispatches one incoming message
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, helpText)
		case "link":
			b.handleLink(ctx, chatID, msg.CommandArguments())
		case "word":
			b.handleNext(ctx, chatID, models.KindWord)
		case "verb":
			b.handleNext(ctx, chatID, models.KindVerb)
		case "stats":
			b.handleStats(ctx, chatID)
		default:
			b.reply(chatID, "Unknown command. Try /help")
		}
		return
	}

	b.handleAnswer(ctx, chatID, msg.Text)
}

const helpText = `Deutsch Drill

/link <username> <password> - connect this chat to your account
/word - translate an English word into German
/verb - conjugate a verb (ich, du, er/sie/es, wir, ihr, sie/Sie)
/stats - words and verbs learned`

func (b *Bot) handleLink(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.reply(chatID, "Usage: /link <username> <password>")
		return
	}

	user, err := b.accounts.Authenticate(ctx, fields[0], fields[1])
	if errors.Is(err, service.ErrInvalidCredentials) {
		b.reply(chatID, "Invalid username or password.")
		return
	}
	if err != nil {
		b.fail(chatID, "link", err)
		return
	}

	if err := b.users.SetTelegramChatID(ctx, user.ID, chatID); err != nil {
		b.fail(chatID, "link", err)
		return
	}
	b.logger.Info("telegram chat linked", zap.Int64("user_id", user.ID), zap.Int64("chat_id", chatID))
	b.reply(chatID, fmt.Sprintf("Hallo %s! Send /word or /verb to start.", user.Username))
}

func (b *Bot) handleNext(ctx context.Context, chatID int64, kind models.ItemKind) {
	user := b.user(ctx, chatID)
	if user == nil {
		return
	}

	item, err := b.drill.Next(ctx, user.ID, kind)
	if errors.Is(err, service.ErrEmptyCatalog) {
		b.reply(chatID, "There is nothing to practise yet.")
		return
	}
	if err != nil {
		b.fail(chatID, "next", err)
		return
	}

	b.setLastKind(chatID, kind)
	b.reply(chatID, prompt(item))
}

func (b *Bot) handleAnswer(ctx context.Context, chatID int64, text string) {
	user := b.user(ctx, chatID)
	if user == nil {
		return
	}

	item, err := b.pending(ctx, chatID, user.ID)
	if err != nil {
		b.fail(chatID, "pending", err)
		return
	}
	if item == nil {
		b.reply(chatID, "Send /word or /verb for a new card.")
		return
	}

	var reply string
	switch item.Kind {
	case models.KindWord:
		res, err := b.drill.GradeWord(ctx, user.ID, item.Word.ID, text, models.DirectionEnDe)
		if err != nil {
			b.fail(chatID, "grade word", err)
			return
		}
		reply = wordFeedback(res)
	case models.KindVerb:
		res, err := b.drill.GradeVerb(ctx, user.ID, item.Verb.ID, grading.ParseVerbLine(text))
		if err != nil {
			b.fail(chatID, "grade verb", err)
			return
		}
		reply = verbFeedback(res)
	}
	b.reply(chatID, reply+"\n\nNext: /"+string(item.Kind))
}

// pending finds the open card, preferring the kind asked for last
func (b *Bot) pending(ctx context.Context, chatID, userID int64) (*service.PresentedItem, error) {
	kinds := []models.ItemKind{models.KindWord, models.KindVerb}
	if b.getLastKind(chatID) == models.KindVerb {
		kinds[0], kinds[1] = kinds[1], kinds[0]
	}
	for _, kind := range kinds {
		item, err := b.drill.Pending(ctx, userID, kind)
		if err != nil || item != nil {
			return item, err
		}
	}
	return nil, nil
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	user := b.user(ctx, chatID)
	if user == nil {
		return
	}

	o, err := b.stats.Overview(ctx, user.ID, time.Now())
	if err != nil {
		b.fail(chatID, "stats", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Words learned: %d/%d\nVerbs learned: %d/%d\nStudy time today: %d min, total: %d min",
		o.WordsLearned, o.TotalWords, o.VerbsLearned, o.TotalVerbs, o.TodayMinutes, o.TotalMinutes))
}

func (b *Bot) user(ctx context.Context, chatID int64) *models.User {
	user, err := b.users.GetUserByTelegramChatID(ctx, chatID)
	if err != nil {
		b.fail(chatID, "lookup", err)
		return nil
	}
	if user == nil {
		b.reply(chatID, "This chat is not linked yet. Use /link <username> <password>")
	}
	return user
}

func (b *Bot) setLastKind(chatID int64, kind models.ItemKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastKind[chatID] = kind
}

func (b *Bot) getLastKind(chatID int64) models.ItemKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastKind[chatID]
}

func (b *Bot) fail(chatID int64, op string, err error) {
	b.logger.Error("telegram handler failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	b.reply(chatID, "Something went wrong, please try again.")
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func prompt(item *service.PresentedItem) string {
	if item.Kind == models.KindVerb {
		return fmt.Sprintf("Conjugate %q (%s).\nReply with six forms separated by commas.", item.Verb.Infinitive, item.Verb.English)
	}
	return fmt.Sprintf("Translate into German: %s", grading.Prompt(*item.Word, models.DirectionEnDe))
}

func wordFeedback(res *service.GradeResult) string {
	if res.Correct {
		return "✅ Richtig! " + res.Expected
	}
	return "❌ Falsch. Correct answer: " + res.Expected
}

func verbFeedback(res *service.VerbGradeResult) string {
	var b strings.Builder
	if res.Correct {
		b.WriteString("✅ Alles richtig!")
	} else {
		fmt.Fprintf(&b, "❌ %d/%d correct", res.CorrectCount, models.NumSlots)
	}
	for _, s := range res.Slots {
		mark := "✓"
		if !s.Correct {
			mark = "✗"
		}
		fmt.Fprintf(&b, "\n%s %s %s", mark, s.Slot, s.CorrectAnswer)
	}
	return b.String()
}
