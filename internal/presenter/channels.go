package presenter

import (
	"html"
	"kiosk/internal/domain"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

const (
	// FailureMessage - текст, который видит пользователь при неудачной загрузке.
	FailureMessage = "The feed could not be loaded"

	pubDateLayout = "Jan 2, 2006 3:04:05 PM"

	TypeChannels = "channels"
	TypeMessage  = "message"
)

// ChannelsData - данные для отображения: либо список каналов, либо сообщение.
type ChannelsData interface {
	Type() string
}

// ChannelListData - успешный результат загрузки в виде для отображения.
type ChannelListData struct {
	Channels []ChannelFeedData `json:"channels"`
}

func (ChannelListData) Type() string { return TypeChannels }

type ChannelFeedData struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Items       []ItemData `json:"items"`
}

// ItemData - запись канала. PubDate пустая, если дата публикации неизвестна.
type ItemData struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	MediaURL    string `json:"media_url"`
	PubDate     string `json:"pub_date"`
	Summary     string `json:"summary"`
}

// MessageData - сообщение об ошибке вместе с URL, который не удалось загрузить.
type MessageData struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func (MessageData) Type() string { return TypeMessage }

// Envelope - JSON-представление ChannelsData с явным тегом типа.
type Envelope struct {
	Type string       `json:"type"`
	Data ChannelsData `json:"data"`
}

func Wrap(data ChannelsData) Envelope {
	return Envelope{Type: data.Type(), Data: data}
}

// ChannelsPresenter преобразует исход загрузки в данные для отображения и передает их в sink.
// Реализует границу вывода сценария загрузки.
type ChannelsPresenter struct {
	loc    *time.Location
	policy *bluemonday.Policy
	sink   func(ChannelsData)
}

func NewChannelsPresenter(loc *time.Location, sink func(ChannelsData)) *ChannelsPresenter {
	if loc == nil {
		loc = time.UTC
	}
	return &ChannelsPresenter{
		loc:    loc,
		policy: bluemonday.StrictPolicy(),
		sink:   sink,
	}
}

func (p *ChannelsPresenter) OnLoaded(response domain.LoadFeedResponse) {
	p.sink(p.Present(response))
}

func (p *ChannelsPresenter) OnFailed(err *domain.FeedLoadError) {
	p.sink(MessageData{Message: FailureMessage, URL: err.URL})
}

// Present строит список каналов, сохраняя порядок каналов и записей.
func (p *ChannelsPresenter) Present(response domain.LoadFeedResponse) ChannelListData {
	return ChannelListData{
		Channels: lo.Map(response.Channels, func(ch domain.Channel, _ int) ChannelFeedData {
			return ChannelFeedData{
				Title:       ch.Title,
				Link:        ch.Link,
				Description: ch.Description,
				Image:       ch.Image,
				Items:       lo.Map(ch.Items, func(item domain.Item, _ int) ItemData { return p.item(item) }),
			}
		}),
	}
}

func (p *ChannelsPresenter) item(item domain.Item) ItemData {
	return ItemData{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		MediaURL:    item.Enclosure.URL,
		PubDate:     p.FormatPubDate(item.PubDate),
		Summary:     p.Summary(item.Description),
	}
}

// FormatPubDate форматирует миллисекунды эпохи в часовом поясе презентера, 0 дает пустую строку.
func (p *ChannelsPresenter) FormatPubDate(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).In(p.loc).Format(pubDateLayout)
}

// Summary убирает разметку из описания и схлопывает пробелы.
func (p *ChannelsPresenter) Summary(description string) string {
	text := html.UnescapeString(p.policy.Sanitize(description))
	return strings.Join(strings.Fields(text), " ")
}
