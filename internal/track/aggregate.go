package track

import (
	"slices"
	"time"
)

// Aggregate объединяет записи всех станций и сортирует по времени эфира, новые первыми.
// Между станциями дубли не убираются: станция - часть записи.
// Записи с неразбираемым временем идут последними, порядок равных сохраняется.
func Aggregate(perStation ...[]Record) []Record {
	total := 0
	for _, batch := range perStation {
		total += len(batch)
	}

	all := make([]Record, 0, total)
	for _, batch := range perStation {
		all = append(all, dedupe(batch)...)
	}

	SortByTime(all)
	return all
}

// SortByTime стабильно сортирует записи по убыванию времени эфира
func SortByTime(records []Record) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make([]keyed, len(records))
	idx := make([]int, len(records))
	for i, r := range records {
		at, ok := r.Time(time.UTC)
		keys[i] = keyed{at: at, ok: ok}
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ka, kb := keys[a], keys[b]
		switch {
		case ka.ok && !kb.ok:
			return -1
		case !ka.ok && kb.ok:
			return 1
		case !ka.ok && !kb.ok:
			return 0
		}
		return kb.at.Compare(ka.at)
	})

	sorted := make([]Record, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

// dedupe схлопывает точные повторы внутри пачки одной станции
func dedupe(batch []Record) []Record {
	seen := make(map[string]struct{}, len(batch))
	out := make([]Record, 0, len(batch))
	for _, r := range batch {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
