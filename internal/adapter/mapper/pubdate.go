package mapper

import (
	"fmt"
	"kiosk/internal/domain"
	"strings"
	"time"
)

const (
	layoutNamedZone   = "Mon, 2 Jan 2006 15:04:05 MST"
	layoutNumericZone = "Mon, 2 Jan 2006 15:04:05 -0700"
)

// rfc822Zones - смещения именованных зон из RFC 822 в секундах.
// Неизвестные имена разбираются со смещением 0 независимо от локальной зоны хоста.
var rfc822Zones = map[string]int{
	"UTC": 0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// DateParseError возвращается, когда дата не подходит ни под один из форматов.
type DateParseError struct {
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("%v: %q", domain.ErrDateParse, e.Value)
}

func (e *DateParseError) Unwrap() error {
	return domain.ErrDateParse
}

// NormalizePubDate переводит дату публикации в миллисекунды от начала эпохи.
// Сначала пробуется формат с именем зоны (GMT), затем с числовым смещением (+0000).
// Пустая строка дает 0, даты раньше эпохи также приводятся к 0.
func NormalizePubDate(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	t, err := parseNamedZone(value)
	if err != nil {
		t, err = time.Parse(layoutNumericZone, value)
		if err != nil {
			return 0, &DateParseError{Value: raw}
		}
	}
	ms := t.UnixMilli()
	if ms < 0 {
		return 0, nil
	}
	return ms, nil
}

// shortZones - имена зон из RFC 822 короче трех букв, которые time.Parse не принимает.
var shortZones = []string{" UT", " Z"}

func parseNamedZone(value string) (time.Time, error) {
	for _, zone := range shortZones {
		if strings.HasSuffix(value, zone) {
			value = strings.TrimSuffix(value, zone) + " UTC"
			break
		}
	}
	t, err := time.ParseInLocation(layoutNamedZone, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	name, _ := t.Zone()
	if offset, ok := rfc822Zones[name]; ok {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
			time.FixedZone(name, offset))
	}
	return t, nil
}
