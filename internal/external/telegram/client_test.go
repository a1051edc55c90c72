package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"radiofeed/internal/track"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failAt int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name string
		rec  track.Record
		want string
	}{
		{
			name: "полная запись",
			rec:  track.Record{Station: "Radio 357", Artist: "Queen", Title: "Bohemian Rhapsody", BroadcastTime: "19.05.2025 21:33"},
			want: "<b>[Radio 357]</b> Queen - Bohemian Rhapsody | 19.05.2025 21:33",
		},
		{
			name: "экранирование и видео",
			rec:  track.Record{Station: "RMF FM", Artist: "Simon & Garfunkel", Title: "<Mrs. Robinson>", VideoID: "abc", BroadcastTime: track.Unparsed},
			want: `<b>[RMF FM]</b> <a href="https://www.youtube.com/watch?v=abc">Simon &amp; Garfunkel - &lt;Mrs. Robinson&gt;</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLine(tt.rec))
		})
	}
}

func TestFormatLine_LongLabelKeepsMarkup(t *testing.T) {
	rec := track.Record{
		Station:       "Radio 357",
		Artist:        "Rock & Roll",
		Title:         strings.Repeat("&ł", 3000),
		VideoID:       "abc",
		BroadcastTime: "19.05.2025 21:33",
	}

	line := FormatLine(rec)
	assert.LessOrEqual(t, utf8.RuneCountInString(line), MaxMessageLength)
	assert.True(t, strings.HasPrefix(line, `<b>[Radio 357]</b> <a href="https://www.youtube.com/watch?v=abc">Rock &amp; Roll - `))
	assert.True(t, strings.HasSuffix(line, "</a> | 19.05.2025 21:33"))
	body := strings.TrimSuffix(line, "</a> | 19.05.2025 21:33")
	assert.True(t, strings.HasSuffix(body, "&amp;") || strings.HasSuffix(body, "ł"), "entity must not be cut")

	chunks := Chunk([]string{line}, MaxMessageLength)
	require.Len(t, chunks, 1)
	assert.Equal(t, line, chunks[0])
}

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk(nil, 10))
	assert.Equal(t, []string{"aaa\nbbb", "ccc"}, Chunk([]string{"aaa", "bbb", "ccc"}, 7))
	assert.Equal(t, []string{"ąąąąą"}, Chunk([]string{"ąąąąąąą"}, 5))

	lines := make([]string, 500)
	for i := range lines {
		lines[i] = strings.Repeat("ż", 40)
	}
	for _, c := range Chunk(lines, MaxMessageLength) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), MaxMessageLength)
	}
}

func TestNotifier_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, 42, zap.NewNop())

	records := []track.Record{
		{Station: "Radio 357", Artist: "Queen", Title: "Bohemian Rhapsody", BroadcastTime: "19.05.2025 21:33"},
		{Station: "BBC Radio 1", Artist: "Dua Lipa", Title: "Houdini", BroadcastTime: "19.05.2025 23:58"},
	}
	require.NoError(t, n.Notify(context.Background(), records))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Equal(t, 2, strings.Count(msg.Text, "\n")+1)
}

func TestNotifier_NothingToSend(t *testing.T) {
	sender := &fakeSender{}
	require.NoError(t, NewNotifier(sender, 42, nil).Notify(context.Background(), nil))
	assert.Empty(t, sender.sent)
}

func TestNotifier_SendFailure(t *testing.T) {
	sender := &fakeSender{failAt: 2}
	n := NewNotifier(sender, 42, zap.NewNop())

	var records []track.Record
	for i := 0; i < 300; i++ {
		records = append(records, track.Record{Station: "Radio ZET", Artist: strings.Repeat("x", 30), Title: "t", BroadcastTime: "19.05.2025 10:00"})
	}

	err := n.Notify(context.Background(), records)
	require.Error(t, err)
	assert.Len(t, sender.sent, 1)
}
