// Package timestamp приводит разнородные строки времени эфира к виду DD.MM.YYYY HH:MM.
package timestamp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Unparsed - маркер нераспознанного времени. Совпадает с track.Unparsed.
const Unparsed = "unparsed"

const (
	canonicalLayout = "02.01.2006 15:04"
	dateLayout      = "02.01.2006"
)

// Policy определяет поведение для отсутствующего или нераспознанного времени
type Policy int

const (
	// FallbackNow подставляет время загрузки страницы (исторически layout_B)
	FallbackNow Policy = iota
	// FallbackUnparsed возвращает маркер Unparsed (исторически layout_A)
	FallbackUnparsed
	// FallbackReject возвращает пустую строку, запись будет отброшена
	FallbackReject
)

// String возвращает имя политики для логов
func (p Policy) String() string {
	switch p {
	case FallbackNow:
		return "fallback_now"
	case FallbackUnparsed:
		return "fallback_unparsed"
	case FallbackReject:
		return "fallback_reject"
	default:
		return "unknown"
	}
}

var (
	canonicalRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}$`)
	shortRe     = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.? (\d{1,2}):(\d{2})$`)
	clock12Re   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2}) ?([AP]M)$`)
	clock24Re   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

// Normalize приводит raw к каноническому виду.
// fetched - момент загрузки страницы, из него берутся недостающие год и дата.
func Normalize(raw string, fetched time.Time, policy Policy) string {
	text := strings.TrimSpace(spacesRe.ReplaceAllString(raw, " "))

	if canonicalRe.MatchString(text) {
		return text
	}

	// Год всегда берется из даты загрузки, даже если дата окажется в будущем
	// (31.12 23:58, загруженное 1 января)
	if m := shortRe.FindStringSubmatch(text); m != nil {
		if out, ok := compose(atoi(m[1]), atoi(m[2]), fetched.Year(), atoi(m[3]), atoi(m[4])); ok {
			return out
		}
	}

	if m := clock12Re.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("3:04 PM", fmt.Sprintf("%s:%s %s", m[1], m[2], strings.ToUpper(m[3]))); err == nil {
			return fetched.Format(dateLayout) + " " + t.Format("15:04")
		}
	}

	if m := clock24Re.FindStringSubmatch(text); m != nil {
		h, mm := atoi(m[1]), atoi(m[2])
		if h < 24 && mm < 60 {
			return fmt.Sprintf("%s %02d:%02d", fetched.Format(dateLayout), h, mm)
		}
	}

	return fallback(fetched, policy)
}

// IsCanonical сообщает, имеет ли строка канонический вид
func IsCanonical(s string) bool {
	return canonicalRe.MatchString(s)
}

// Parse разбирает каноническую строку в указанной зоне
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(canonicalLayout, s, loc)
}

// Format форматирует момент времени канонически
func Format(t time.Time) string {
	return t.Format(canonicalLayout)
}

func fallback(fetched time.Time, policy Policy) string {
	switch policy {
	case FallbackNow:
		return Format(fetched)
	case FallbackUnparsed:
		return Unparsed
	default:
		return ""
	}
}

// compose собирает каноническую строку, проверяя календарную корректность
func compose(day, month, year, hour, minute int) (string, bool) {
	if month < 1 || month > 12 || hour > 23 || minute > 59 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false
	}
	return Format(t), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
