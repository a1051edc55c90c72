// Package telegram отправляет уведомления о новых треках через Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"radiofeed/internal/media"
	"radiofeed/internal/track"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// MaxMessageLength - лимит длины текста сообщения Telegram в символах
const MaxMessageLength = 4096

// Notifier публикует новые треки в чат
type Notifier struct {
	sender Sender
	chatID int64
	logger *zap.Logger
}

// NewBotSender создает клиента Bot API по токену
func NewBotSender(botToken string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false
	logger.Info("Telegram bot created", zap.String("username", bot.Self.UserName))
	return bot, nil
}

// NewNotifier создает уведомитель для чата
func NewNotifier(sender Sender, chatID int64, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

// Notify отправляет записи одним или несколькими HTML-сообщениями.
// Возвращает ошибку первой неудачной отправки, остальные части не отправляются.
func (n *Notifier) Notify(ctx context.Context, records []track.Record) error {
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, FormatLine(r))
	}

	chunks := Chunk(lines, MaxMessageLength)
	for i, text := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true // Отключаем превью ссылок

		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error("Failed to send message",
				zap.Int64("chat_id", n.chatID),
				zap.Int("chunk", i+1),
				zap.Int("chunks", len(chunks)),
				zap.Error(err))
			return fmt.Errorf("failed to send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	n.logger.Info("Sent new tracks",
		zap.Int64("chat_id", n.chatID),
		zap.Int("tracks", len(records)),
		zap.Int("messages", len(chunks)))
	return nil
}

// FormatLine форматирует запись: "<b>[Station]</b> ARTIST - TITLE | TIME".
// Строка укладывается в MaxMessageLength: при необходимости укорачивается подпись до разметки.
func FormatLine(r track.Record) string {
	return formatLine(r, MaxMessageLength)
}

func formatLine(r track.Record, limit int) string {
	label := []rune(r.Label())
	for {
		line := renderLine(r, string(label))
		over := utf8.RuneCountInString(line) - limit
		if over <= 0 || len(label) == 0 {
			return line
		}
		label = label[:max(len(label)-over, 0)]
	}
}

func renderLine(r track.Record, label string) string {
	var b strings.Builder
	b.WriteString("<b>[" + html.EscapeString(r.Station) + "]</b> ")

	label = html.EscapeString(label)
	if link := media.VideoLink(r.VideoID); link != "" {
		label = `<a href="` + html.EscapeString(link) + `">` + label + "</a>"
	}
	b.WriteString(label)

	if r.HasTime() {
		b.WriteString(" | " + html.EscapeString(r.BroadcastTime))
	}
	return b.String()
}

// Chunk склеивает строки через перевод строки в сообщения не длиннее limit символов.
// Слишком длинная строка обрезается по границе символа.
func Chunk(lines []string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range lines {
		lineLen := utf8.RuneCountInString(line)
		if lineLen > limit {
			line = truncate(line, limit)
			lineLen = limit
		}

		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+lineLen > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curLen += sep + lineLen
	}
	flush()

	return chunks
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
