// Package extract извлекает сырые поля треков из страниц плейлистов.
//
// Поддерживаются два семейства сайтов и их исторические варианты разметки:
// layout_A (songCont и yt-row с микроразметкой) и layout_B (list-group).
package extract

import (
	"regexp"
	"strings"

	"radiofeed/internal/track"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	// containersA - контейнеры треков layout_A во всех известных вариантах
	containersA = "div.songCont, .yt-row"
	// containersB - элементы плейлиста layout_B
	containersB = "div.col-md-9 ul.list-group li.list-group-item"

	// trackContainers - контейнеры обоих семейств
	trackContainers = containersA + ", " + containersB

	textSelector      = "div.txt1"
	timeSelector      = "span.txt2, time"
	artistSelector    = `[itemprop="byArtist"]`
	titleSelector     = `[itemprop="name"]`
	microdataSelector = `[itemprop]`
	imageSelector     = "img[data-lazy-load]"

	videoAttr = "data-youtube"
	coverAttr = "data-lazy-load"

	separator = " - "
)

var (
	leadingClockRe = regexp.MustCompile(`^\d{2}:\d{2}`)
	layoutBItemRe  = regexp.MustCompile(`(?i)^(\d{1,2}:\d{2}\s?[AP]M)\s*-\s*(.*)$`)
	spacesRe       = regexp.MustCompile(`\s+`)
)

// Extractor извлекает поля из фрагментов разметки
type Extractor struct {
	logger *zap.Logger
}

// New создает новый Extractor
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractPage находит все контейнеры треков семейства и извлекает из них поля
func (e *Extractor) ExtractPage(doc *goquery.Document, family track.Family) []track.Fields {
	if doc == nil {
		return nil
	}

	var out []track.Fields
	switch family {
	case track.FamilyA:
		doc.Find(containersA).Each(func(_ int, s *goquery.Selection) {
			// Вложенные контейнеры уже обработаны внешним
			if s.ParentsFiltered(containersA).Length() > 0 {
				return
			}
			out = append(out, e.Extract(s, DetectLayout(s, family)))
		})
	case track.FamilyB:
		doc.Find(containersB).Each(func(_ int, s *goquery.Selection) {
			out = append(out, e.Extract(s, track.LayoutB))
		})
	default:
		e.logger.Warn("No extractor for family", zap.String("family", family.String()))
		return nil
	}

	e.logger.Debug("Extracted fragments",
		zap.String("family", family.String()),
		zap.Int("count", len(out)))
	return out
}

// DetectLayout определяет вариант разметки для контейнера
func DetectLayout(s *goquery.Selection, family track.Family) track.Layout {
	if family == track.FamilyB {
		return track.LayoutB
	}
	if s.HasClass("yt-row") || s.Find(microdataSelector).Length() > 0 {
		return track.LayoutAMicrodata
	}
	return track.LayoutAPlain
}

// Extract извлекает поля из одного фрагмента. Отсутствующие поля остаются пустыми.
func (e *Extractor) Extract(fragment *goquery.Selection, layout track.Layout) track.Fields {
	var f track.Fields
	switch layout {
	case track.LayoutAPlain:
		f = extractPlain(fragment)
	case track.LayoutAMicrodata:
		f = extractMicrodata(fragment)
	case track.LayoutB:
		f = extractListItem(fragment)
	default:
		return track.Fields{Layout: layout}
	}

	f.Layout = layout
	if f.VideoID == "" {
		f.VideoID = findVideoID(fragment)
	}
	// В layout_B обложек нет, ближайшая картинка там - логотип станции
	if layout == track.LayoutB {
		return f
	}
	if img := findCoverImage(fragment); img != nil {
		f.CoverBase = clean(img.AttrOr(coverAttr, ""))
		if alt := clean(img.AttrOr("alt", "")); strings.Contains(alt, separator) {
			f.DisplayLabel = alt
		}
	}
	return f
}

// extractPlain разбирает "HH:MM ARTIST - TITLE" из div.txt1
func extractPlain(fragment *goquery.Selection) track.Fields {
	textNode := fragment.Find(textSelector).First()
	if textNode.Length() == 0 {
		textNode = fragment
	}

	var f track.Fields
	text := clean(textNode.Text())

	if ts := textNode.Find(timeSelector).First(); ts.Length() > 0 {
		f.RawTime = timeOf(ts)
		for _, piece := range []string{f.RawTime, clean(ts.Text())} {
			if piece != "" {
				text = strings.Replace(text, piece, "", 1)
			}
		}
		text = clean(text)
	} else if ts := fragment.Find(timeSelector).First(); ts.Length() > 0 {
		// Время может стоять рядом с div.txt1, а не внутри него
		f.RawTime = timeOf(ts)
	}

	text = strings.TrimSpace(leadingClockRe.ReplaceAllString(text, ""))
	f.Artist, f.Title = splitArtistTitle(text)
	return f
}

// extractMicrodata берет артиста и название из itemprop-элементов
func extractMicrodata(fragment *goquery.Selection) track.Fields {
	var f track.Fields

	f.Artist = clean(fragment.Find(artistSelector).First().Text())
	f.Title = clean(fragment.Find(titleSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(artistSelector).Length() == 0 && !s.Is(artistSelector)
	}).First().Text())

	if ts := fragment.Find(timeSelector).First(); ts.Length() > 0 {
		f.RawTime = timeOf(ts)
	}

	// Старый вариант yt-row без itemprop: "ARTIST - TITLE" в div.txt1
	if f.Title == "" {
		plain := extractPlain(fragment)
		f.Artist, f.Title = plain.Artist, plain.Title
		if f.RawTime == "" {
			f.RawTime = plain.RawTime
		}
	}
	return f
}

// extractListItem разбирает "H:MM AM - ARTIST - TITLE"
func extractListItem(fragment *goquery.Selection) track.Fields {
	var f track.Fields
	text := clean(fragment.Text())

	m := layoutBItemRe.FindStringSubmatch(text)
	if m == nil {
		f.Title = text
		return f
	}

	f.RawTime = clean(m[1])
	f.Artist, f.Title = splitArtistTitle(clean(m[2]))
	return f
}

// timeOf возвращает время из подсказки элемента, иначе его текст
func timeOf(s *goquery.Selection) string {
	for _, attr := range []string{"title", "datetime"} {
		if v := clean(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return clean(s.Text())
}

// splitArtistTitle делит строку по первому " - "; без разделителя все считается названием
func splitArtistTitle(text string) (artist, title string) {
	if before, after, ok := strings.Cut(text, separator); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(text)
}

// clean схлопывает пробелы и приводит текст к NFC
func clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return norm.NFC.String(strings.TrimSpace(s))
}
