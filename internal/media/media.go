// Package media строит ссылки на обложки, превью видео и поиск обложек.
package media

import (
	"net/url"
	"strings"
)

const (
	// SmallThumbSuffix - суффикс миниатюры обложки на странице плейлиста
	SmallThumbSuffix = "50x50bb.webp"
	// LargeThumbSuffix - суффикс обложки высокого разрешения
	LargeThumbSuffix = "1000x1000bb.webp"
	// PlaceholderMarker - признак заглушки "нет обложки"
	PlaceholderMarker = "default"

	videoWatchURL  = "https://www.youtube.com/watch?v="
	videoThumbURL  = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
	coverSearchURL = "https://covers.musichoarders.xyz/"
)

// DeriveCover возвращает ссылку на обложку.
// Приоритет: явная обложка (не заглушка) > превью видео > ничего.
func DeriveCover(base, videoID string) string {
	cover := upscale(strings.TrimSpace(base))
	if cover != "" && !IsPlaceholder(cover) {
		return cover
	}
	if thumb := VideoThumbnail(videoID); thumb != "" {
		return thumb
	}
	return ""
}

// IsPlaceholder сообщает, является ли ссылка заглушкой
func IsPlaceholder(coverURL string) bool {
	return strings.Contains(strings.ToLower(coverURL), PlaceholderMarker)
}

// VideoThumbnail возвращает превью видео по идентификатору
func VideoThumbnail(videoID string) string {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return ""
	}
	return strings.Replace(videoThumbURL, "%s", url.PathEscape(videoID), 1)
}

// VideoLink возвращает ссылку на страницу просмотра видео
func VideoLink(videoID string) string {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return ""
	}
	return videoWatchURL + url.QueryEscape(videoID)
}

// CoverSearchLink возвращает ссылку на поиск обложки.
// Пустые значения остаются в запросе пустыми параметрами.
func CoverSearchLink(artist, title string) string {
	return coverSearchURL +
		"?artist=" + escape(artist) +
		"&album=" + escape(title) +
		"&country=us&sources=amazonmusic"
}

func upscale(base string) string {
	if base == "" {
		return ""
	}
	if strings.HasSuffix(base, SmallThumbSuffix) {
		return strings.TrimSuffix(base, SmallThumbSuffix) + LargeThumbSuffix
	}
	if strings.HasSuffix(base, LargeThumbSuffix) {
		return base
	}
	return base + LargeThumbSuffix
}

// escape кодирует пробел как %20, а не "+"
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
