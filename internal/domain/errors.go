package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport - сетевая ошибка или HTTP-статус вне диапазона 2xx.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedDocument - документ не является корректным XML или не содержит корневого элемента.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrDateParse - значение pubDate не подходит ни под один из поддерживаемых форматов.
	ErrDateParse = errors.New("unparseable publication date")
)

// FeedLoadError - единственная форма ошибки, которая выходит за границу сценария загрузки.
// Хранит запрошенный URL и исходную причину для диагностики.
type FeedLoadError struct {
	URL   string
	Cause error
}

func (e *FeedLoadError) Error() string {
	return fmt.Sprintf("loading of %s failed: %v", e.URL, e.Cause)
}

func (e *FeedLoadError) Unwrap() error {
	return e.Cause
}

// FailureClass возвращает класс ошибки для логов и метрик.
func FailureClass(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, ErrDateParse):
		return "date"
	default:
		return "unknown"
	}
}
