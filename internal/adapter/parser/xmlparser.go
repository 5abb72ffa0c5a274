package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"kiosk/internal/domain"
	"log/slog"
	"strings"

	"golang.org/x/net/html/charset"
)

// ctxCheckEvery - как часто (в токенах) проверяется отмена контекста во время разбора.
const ctxCheckEvery = 1024

type XMLParser struct {
	log *slog.Logger
}

func NewXMLParser(log *slog.Logger) *XMLParser {
	return &XMLParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// Parse реализует метод интерфейса FeedParser.
// Неизвестные, повторяющиеся и вендорные теги пропускаются, ошибкой считается только
// структурно некорректный документ.
func (p *XMLParser) Parse(ctx context.Context, reader io.Reader) ([]RawChannel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := &fold{}
	if err := f.run(ctx, newDecoder(reader)); err != nil {
		p.log.Error(
			"Error decoding XML",
			slog.Any("error", err),
		)
		return nil, err
	}
	p.log.Debug("Document parsed", slog.Int("channels", len(f.channels)))
	return f.channels, nil
}

func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// fold накапливает каналы, проходя по плоскому потоку токенов без рекурсии.
// Глубина: корень = 1, <channel> = 2, поля канала = 3, поля <image> и <item> = 4.
type fold struct {
	stack    []xml.Name
	rootSeen bool
	channels []RawChannel

	inChannel bool
	channel   RawChannel
	inImage   bool
	image     RawImage
	inItem    bool
	item      RawItem

	capture      *string
	captureDepth int
	text         strings.Builder
}

func (f *fold) run(ctx context.Context, d *xml.Decoder) error {
	for n := 1; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, domain.ErrTransport) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(f.stack) == 0 && f.rootSeen {
				return malformed("more than one root element, found <%s>", qualified(t.Name))
			}
			f.rootSeen = true
			f.stack = append(f.stack, t.Name)
			f.start(t)
		case xml.EndElement:
			if len(f.stack) == 0 || f.stack[len(f.stack)-1] != t.Name {
				return malformed("unexpected end element </%s>", qualified(t.Name))
			}
			f.end()
			f.stack = f.stack[:len(f.stack)-1]
		case xml.CharData:
			if len(f.stack) == 0 {
				if text := strings.Trim(string(t), " \t\r\n\uFEFF"); text != "" {
					return malformed("character data outside the root element: %q", text)
				}
				continue
			}
			if f.capture != nil {
				f.text.Write(t)
			}
		}
	}
	if !f.rootSeen {
		return malformed("no root element")
	}
	if len(f.stack) > 0 {
		return malformed("unexpected EOF, <%s> is not closed", qualified(f.stack[len(f.stack)-1]))
	}
	return nil
}

func (f *fold) start(t xml.StartElement) {
	if f.capture != nil {
		return
	}
	// Поля распознаются только без префикса: atom:link, itunes:image и т.п. игнорируются.
	if t.Name.Space != "" {
		return
	}
	depth := len(f.stack)
	switch {
	case depth == 2 && t.Name.Local == "channel":
		f.inChannel = true
		f.channel = RawChannel{}
	case f.inChannel && depth == 3:
		switch t.Name.Local {
		case "title":
			f.captureInto(&f.channel.Title, depth)
		case "link":
			f.captureInto(&f.channel.Link, depth)
		case "description":
			f.captureInto(&f.channel.Description, depth)
		case "image":
			f.inImage = true
			f.image = RawImage{}
		case "item":
			f.inItem = true
			f.item = newRawItem()
		}
	case f.inImage && depth == 4:
		if t.Name.Local == "url" {
			f.captureInto(&f.image.URL, depth)
		}
	case f.inItem && depth == 4:
		switch t.Name.Local {
		case "title":
			f.captureInto(&f.item.Title, depth)
		case "link":
			f.captureInto(&f.item.Link, depth)
		case "description":
			f.captureInto(&f.item.Description, depth)
		case "pubDate":
			f.captureInto(&f.item.PubDate, depth)
		case "enclosure":
			f.item.Enclosure = readEnclosure(t.Attr)
		}
	}
}

func (f *fold) end() {
	depth := len(f.stack)
	if f.capture != nil {
		if depth == f.captureDepth {
			*f.capture = f.text.String()
			f.capture = nil
		}
		return
	}
	switch {
	case f.inImage && depth == 3:
		f.channel.Image = f.image
		f.inImage = false
	case f.inItem && depth == 3:
		f.channel.Items = append(f.channel.Items, f.item)
		f.inItem = false
	case f.inChannel && depth == 2:
		f.channels = append(f.channels, f.channel)
		f.inChannel = false
	}
}

func (f *fold) captureInto(target *string, depth int) {
	f.capture = target
	f.captureDepth = depth
	f.text.Reset()
}

func readEnclosure(attrs []xml.Attr) RawEnclosure {
	enc := newRawEnclosure()
	for _, a := range attrs {
		if a.Name.Space != "" {
			continue
		}
		switch a.Name.Local {
		case "url":
			enc.URL = a.Value
		case "length":
			enc.Length = a.Value
		case "type":
			enc.Type = a.Value
		}
	}
	return enc
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedDocument, fmt.Sprintf(format, args...))
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
