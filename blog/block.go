package blog

import (
	"encoding/json"
	"fmt"
)

// BlockKind is the JSON discriminator of a content block.
type BlockKind string

const (
	KindParagraph     BlockKind = "p"
	KindHeading2      BlockKind = "h2"
	KindHeading3      BlockKind = "h3"
	KindUnorderedList BlockKind = "ul"
	KindOrderedList   BlockKind = "ol"
	KindCallout       BlockKind = "callout"
	KindCode          BlockKind = "code"
	KindImage         BlockKind = "image"
)

// Block is one unit of a post body. The set of implementations is closed;
// consumers handle every kind by implementing BlockVisitor, so adding a kind
// breaks the build until every visitor handles it.
type Block interface {
	Kind() BlockKind
	Accept(v BlockVisitor)
}

// BlockVisitor has one method per block kind.
type BlockVisitor interface {
	Paragraph(Paragraph)
	Heading2(Heading2)
	Heading3(Heading3)
	UnorderedList(UnorderedList)
	OrderedList(OrderedList)
	Callout(Callout)
	Code(Code)
	Image(Image)
}

type Paragraph struct {
	Text string `json:"text"`
}

type Heading2 struct {
	Text string `json:"text"`
}

type Heading3 struct {
	Text string `json:"text"`
}

type UnorderedList struct {
	Items []string `json:"items"`
}

type OrderedList struct {
	Items []string `json:"items"`
}

type Callout struct {
	Text string `json:"text"`
}

// Code is a source snippet; Language is an optional highlighting hint.
type Code struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code"`
}

// Image is an inline figure with optional caption and attribution.
type Image struct {
	Src     string       `json:"src"`
	Alt     string       `json:"alt"`
	Caption string       `json:"caption,omitempty"`
	Source  *ImageSource `json:"source,omitempty"`
}

// ImageSource attributes an image; URL is optional.
type ImageSource struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

func (Paragraph) Kind() BlockKind     { return KindParagraph }
func (Heading2) Kind() BlockKind      { return KindHeading2 }
func (Heading3) Kind() BlockKind      { return KindHeading3 }
func (UnorderedList) Kind() BlockKind { return KindUnorderedList }
func (OrderedList) Kind() BlockKind   { return KindOrderedList }
func (Callout) Kind() BlockKind       { return KindCallout }
func (Code) Kind() BlockKind          { return KindCode }
func (Image) Kind() BlockKind         { return KindImage }

func (b Paragraph) Accept(v BlockVisitor)     { v.Paragraph(b) }
func (b Heading2) Accept(v BlockVisitor)      { v.Heading2(b) }
func (b Heading3) Accept(v BlockVisitor)      { v.Heading3(b) }
func (b UnorderedList) Accept(v BlockVisitor) { v.UnorderedList(b) }
func (b OrderedList) Accept(v BlockVisitor)   { v.OrderedList(b) }
func (b Callout) Accept(v BlockVisitor)       { v.Callout(b) }
func (b Code) Accept(v BlockVisitor)          { v.Code(b) }
func (b Image) Accept(v BlockVisitor)         { v.Image(b) }

// Content is the ordered block sequence of a post. It encodes as a JSON array
// of objects tagged with a "type" field.
type Content []Block

// Walk visits every block in order.
func (c Content) Walk(v BlockVisitor) {
	for _, b := range c {
		b.Accept(v)
	}
}

// Clone copies the block slice and the slices held by list blocks.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for i, b := range c {
		switch v := b.(type) {
		case UnorderedList:
			v.Items = append([]string(nil), v.Items...)
			out[i] = v
		case OrderedList:
			v.Items = append([]string(nil), v.Items...)
			out[i] = v
		case Image:
			if v.Source != nil {
				s := *v.Source
				v.Source = &s
			}
			out[i] = v
		default:
			out[i] = b
		}
	}
	return out
}

// MarshalJSON writes each block with its "type" discriminator.
func (c Content) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(c))
	for i, b := range c {
		raw, err := marshalBlock(b)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", i, err)
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func marshalBlock(b Block) ([]byte, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(string(b.Kind()))
	fields["type"] = kind
	return json.Marshal(fields)
}

// UnmarshalJSON decodes tagged blocks. Unknown kinds are an error.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Content, 0, len(raws))
	for i, raw := range raws {
		b, err := DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	*c = out
	return nil
}

// DecodeBlock decodes one tagged block object.
func DecodeBlock(raw json.RawMessage) (Block, error) {
	var head struct {
		Type BlockKind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindParagraph:
		return decodeAs[Paragraph](raw)
	case KindHeading2:
		return decodeAs[Heading2](raw)
	case KindHeading3:
		return decodeAs[Heading3](raw)
	case KindUnorderedList:
		return decodeAs[UnorderedList](raw)
	case KindOrderedList:
		return decodeAs[OrderedList](raw)
	case KindCallout:
		return decodeAs[Callout](raw)
	case KindCode:
		return decodeAs[Code](raw)
	case KindImage:
		return decodeAs[Image](raw)
	case "":
		return nil, fmt.Errorf("missing block type")
	default:
		return nil, fmt.Errorf("unknown block type %q", head.Type)
	}
}

func decodeAs[T Block](raw json.RawMessage) (Block, error) {
	var b T
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return b, nil
}
