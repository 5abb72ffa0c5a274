package parser

// RawEnclosure - атрибуты тега <enclosure> как есть, без преобразования типов.
type RawEnclosure struct {
	URL    string
	Length string
	Type   string
}

// RawImage - промежуточный носитель адреса обложки канала.
type RawImage struct {
	URL string
}

// RawItem - сырые поля одного <item>.
type RawItem struct {
	Title       string
	Link        string
	Description string
	PubDate     string
	Enclosure   RawEnclosure
}

// RawChannel - сырые поля одного <channel> и его записи в порядке документа.
type RawChannel struct {
	Title       string
	Link        string
	Description string
	Image       RawImage
	Items       []RawItem
}

func newRawEnclosure() RawEnclosure {
	return RawEnclosure{Length: "0"}
}

func newRawItem() RawItem {
	return RawItem{Enclosure: newRawEnclosure()}
}
