package track

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"radiofeed/internal/media"
	"radiofeed/internal/timestamp"

	"go.uber.org/zap"
)

var (
	// ErrRejected - общая ошибка отброшенной записи
	ErrRejected = errors.New("record rejected")
	// ErrEmptyTitle - у записи нет названия
	ErrEmptyTitle = fmt.Errorf("%w: empty title", ErrRejected)
	// ErrNoBroadcastTime - время эфира не удалось определить
	ErrNoBroadcastTime = fmt.Errorf("%w: no broadcast time", ErrRejected)
)

// PolicyFor возвращает политику нормализации времени для макета.
// layout_A исторически оставлял время пустым, layout_B подставлял время загрузки.
func PolicyFor(layout Layout) timestamp.Policy {
	switch layout {
	case LayoutB:
		return timestamp.FallbackNow
	case LayoutAPlain, LayoutAMicrodata:
		return timestamp.FallbackUnparsed
	default:
		return timestamp.FallbackReject
	}
}

// Assembler собирает канонические записи из сырых полей
type Assembler struct {
	fetched  time.Time
	policies map[Layout]timestamp.Policy
	logger   *zap.Logger
}

// NewAssembler создает сборщик; fetched - момент загрузки страницы
func NewAssembler(fetched time.Time, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		fetched:  fetched,
		policies: map[Layout]timestamp.Policy{},
		logger:   logger,
	}
}

// WithPolicy переопределяет политику для макета
func (a *Assembler) WithPolicy(layout Layout, policy timestamp.Policy) *Assembler {
	a.policies[layout] = policy
	return a
}

func (a *Assembler) policy(layout Layout) timestamp.Policy {
	if p, ok := a.policies[layout]; ok {
		return p
	}
	return PolicyFor(layout)
}

// Assemble собирает запись или возвращает ошибку, обернутую в ErrRejected
func (a *Assembler) Assemble(src Source, f Fields) (Record, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return Record{}, ErrEmptyTitle
	}

	broadcast := timestamp.Normalize(f.RawTime, a.fetched, a.policy(f.Layout))
	if broadcast == "" {
		return Record{}, ErrNoBroadcastTime
	}

	return Record{
		Station:       src.Name,
		StationLink:   src.Link,
		Artist:        strings.TrimSpace(f.Artist),
		Title:         title,
		BroadcastTime: broadcast,
		VideoID:       strings.TrimSpace(f.VideoID),
		CoverURL:      media.DeriveCover(f.CoverBase, f.VideoID),
		DisplayLabel:  strings.TrimSpace(f.DisplayLabel),
	}, nil
}

// AssembleAll собирает пачку записей станции; отброшенные записи логируются и считаются
func (a *Assembler) AssembleAll(src Source, fields []Fields) (records []Record, rejected int) {
	records = make([]Record, 0, len(fields))
	for i, f := range fields {
		rec, err := a.Assemble(src, f)
		if err != nil {
			rejected++
			a.logger.Debug("Record rejected",
				zap.String("station", src.Name),
				zap.Int("index", i),
				zap.String("layout", f.Layout.String()),
				zap.String("artist", f.Artist),
				zap.String("raw_time", f.RawTime),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}
