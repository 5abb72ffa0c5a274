package domain

// Enclosure описывает прикрепленный к новости медиафайл.
// Отсутствие вложения представляется нулевым значением, а не nil.
type Enclosure struct {
	URL    string `json:"url"`
	Length int64  `json:"length"`
	Type   string `json:"type"`
}

// Item представляет отдельную запись канала.
// PubDate хранится в миллисекундах от начала эпохи Unix.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Enclosure   Enclosure `json:"enclosure"`
	PubDate     int64     `json:"pub_date"`
}

// Channel представляет одну секцию <channel> ленты с метаданными и записями в порядке документа.
type Channel struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Items       []Item `json:"items"`
}

// LoadFeedRequest - запрос на загрузку ленты.
type LoadFeedRequest struct {
	URL string
}

// LoadFeedResponse - результат успешной загрузки: все каналы документа по порядку.
type LoadFeedResponse struct {
	Channels []Channel
}

// ArchivedItem - запись из архива вместе с данными канала, к которому она относится.
type ArchivedItem struct {
	Item
	ChannelTitle string `json:"channel_title"`
	ChannelLink  string `json:"channel_link"`
}

// ItemFilter задает выборку из архива. Пустой ChannelLink означает все каналы,
// Limit <= 0 означает лимит по умолчанию.
type ItemFilter struct {
	Limit       int
	ChannelLink string
}
