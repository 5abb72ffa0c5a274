package mapper

import (
	"kiosk/internal/adapter/parser"
	"kiosk/internal/domain"
	"strconv"
	"strings"
)

// ToDomain преобразует сырой канал в доменную модель.
// Ошибка разбора даты пробрасывается без изменений.
func ToDomain(raw parser.RawChannel) (domain.Channel, error) {
	items := make([]domain.Item, 0, len(raw.Items))
	for _, rawItem := range raw.Items {
		item, err := toItem(rawItem)
		if err != nil {
			return domain.Channel{}, err
		}
		items = append(items, item)
	}
	return domain.Channel{
		Title:       raw.Title,
		Link:        raw.Link,
		Description: raw.Description,
		Image:       raw.Image.URL,
		Items:       items,
	}, nil
}

// ToDomainAll преобразует каналы по порядку и останавливается на первой ошибке.
func ToDomainAll(raws []parser.RawChannel) ([]domain.Channel, error) {
	channels := make([]domain.Channel, 0, len(raws))
	for _, raw := range raws {
		ch, err := ToDomain(raw)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func toItem(raw parser.RawItem) (domain.Item, error) {
	pubDate, err := NormalizePubDate(raw.PubDate)
	if err != nil {
		return domain.Item{}, err
	}
	return domain.Item{
		Title:       raw.Title,
		Link:        raw.Link,
		Description: raw.Description,
		Enclosure:   toEnclosure(raw.Enclosure),
		PubDate:     pubDate,
	}, nil
}

func toEnclosure(raw parser.RawEnclosure) domain.Enclosure {
	return domain.Enclosure{
		URL:    raw.URL,
		Length: parseLength(raw.Length),
		Type:   raw.Type,
	}
}

// parseLength никогда не падает: нечисловое или отрицательное значение дает 0.
func parseLength(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
