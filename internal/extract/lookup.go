package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// ancestorDepth ограничивает подъем по дереву при поиске обложки
const ancestorDepth = 3

// findVideoID ищет data-youtube: у самого фрагмента, у потомков, у соседей
func findVideoID(fragment *goquery.Selection) string {
	if v := clean(fragment.AttrOr(videoAttr, "")); v != "" {
		return v
	}

	attrSelector := "[" + videoAttr + "]"
	if v := clean(fragment.Find(attrSelector).First().AttrOr(videoAttr, "")); v != "" {
		return v
	}

	for _, sib := range neighbours(fragment) {
		if v := clean(sib.AttrOr(videoAttr, "")); v != "" {
			return v
		}
		if v := clean(sib.Find(attrSelector).First().AttrOr(videoAttr, "")); v != "" {
			return v
		}
	}
	return ""
}

// findCoverImage ищет img с отложенной загрузкой.
// Порядок: внутри фрагмента, у ближайшего предка, у соседей; первое совпадение побеждает.
func findCoverImage(fragment *goquery.Selection) *goquery.Selection {
	if img := fragment.Find(imageSelector).First(); img.Length() > 0 {
		return img
	}
	if img := ancestorImage(fragment); img != nil {
		return img
	}
	return siblingImage(fragment)
}

// ancestorImage поднимается по предкам, пока не встретит контейнер с единственной свободной обложкой.
// Обложки внутри других контейнеров треков не учитываются.
// Предок с несколькими свободными обложками общий для нескольких треков, поиск прекращается.
func ancestorImage(fragment *goquery.Selection) *goquery.Selection {
	parent := fragment.Parent()
	for depth := 0; depth < ancestorDepth && parent.Length() > 0; depth++ {
		imgs := parent.Find(imageSelector).FilterFunction(func(_ int, img *goquery.Selection) bool {
			return img.ParentsFiltered(containersA).Length() == 0
		})
		switch imgs.Length() {
		case 0:
			parent = parent.Parent()
		case 1:
			return imgs.First()
		default:
			return nil
		}
	}
	return nil
}

// siblingImage проверяет соседа, относящегося к фрагменту
func siblingImage(fragment *goquery.Selection) *goquery.Selection {
	for _, sib := range neighbours(fragment) {
		if sib.Is(imageSelector) {
			return sib
		}
		if img := sib.Find(imageSelector).First(); img.Length() > 0 {
			return img
		}
	}
	return nil
}

// neighbours возвращает соседа с той стороны, где на странице лежат медиа треков.
// Соседние контейнеры треков пропускаются.
func neighbours(fragment *goquery.Selection) []*goquery.Selection {
	sib := fragment.Next()
	if mediaFirst(fragment) {
		sib = fragment.Prev()
	}
	if sib.Length() == 0 || sib.Is(trackContainers) {
		return nil
	}
	return []*goquery.Selection{sib}
}

// mediaFirst определяет порядок для всего списка: медиа стоят перед своим контейнером,
// если перед первым контейнером списка есть элемент с обложкой или видео
func mediaFirst(fragment *goquery.Selection) bool {
	first := fragment.Parent().Children().Filter(trackContainers).First()
	if first.Length() == 0 {
		first = fragment
	}
	return holdsMedia(first.Prev())
}

func holdsMedia(s *goquery.Selection) bool {
	if s.Length() == 0 || s.Is(trackContainers) {
		return false
	}
	media := imageSelector + ", [" + videoAttr + "]"
	return s.Is(media) || s.Find(media).Length() > 0
}
