package gamexml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ThisBlock holds the identity and type flags of an object
const ThisBlock = "this"

// Span locates the raw text of an element inside the source document
type Span struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// Block is one AttributeBlock: plain attributes plus attribute lists
type Block struct {
	Attributes map[string]string
	Lists      map[string]map[string]string
}

// Object is one GameObject of the game-state snapshot
type Object struct {
	ID       string
	Name     string
	Span     Span
	Blocks   map[string]*Block
	Contains []string
}

// Document is a parsed game-state snapshot
type Document struct {
	Objects []*Object
	byID    map[string]*Object
}

type rawAttr struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type rawList struct {
	Key  string    `xml:"keyName,attr"`
	Vals []rawAttr `xml:"attributeVal"`
}

type rawBlock struct {
	Name       string    `xml:"blockName,attr"`
	Attributes []rawAttr `xml:"attribute"`
	Lists      []rawList `xml:"attributeList"`
}

type rawRef struct {
	ID string `xml:"id,attr"`
}

type rawObject struct {
	ID       string     `xml:"id,attr"`
	Name     string     `xml:"name,attr"`
	Contains []rawRef   `xml:"contains"`
	Blocks   []rawBlock `xml:"AttributeBlock"`
}

// Parse reads every GameObject of an XML document. Only malformed XML is an
// error; missing attributes are left for the accessors to default.
func Parse(content string) (*Document, error) {
	doc := &Document{
		Objects: make([]*Object, 0),
		byID:    make(map[string]*Object),
	}

	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = true

	for {
		offset := decoder.InputOffset()
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse game xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "GameObject" {
			continue
		}

		var raw rawObject
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("failed to decode game object at offset %d: %w", offset, err)
		}

		obj := newObject(raw)
		obj.Span = Span{Offset: offset, Length: decoder.InputOffset() - offset}
		doc.Objects = append(doc.Objects, obj)
		if _, exists := doc.byID[obj.ID]; !exists {
			doc.byID[obj.ID] = obj
		}
	}

	return doc, nil
}

func newObject(raw rawObject) *Object {
	obj := &Object{
		ID:       raw.ID,
		Name:     raw.Name,
		Blocks:   make(map[string]*Block, len(raw.Blocks)),
		Contains: make([]string, 0, len(raw.Contains)),
	}

	for _, ref := range raw.Contains {
		if ref.ID != "" {
			obj.Contains = append(obj.Contains, ref.ID)
		}
	}

	for _, rb := range raw.Blocks {
		block, ok := obj.Blocks[rb.Name]
		if !ok {
			block = &Block{
				Attributes: make(map[string]string),
				Lists:      make(map[string]map[string]string),
			}
			obj.Blocks[rb.Name] = block
		}
		for _, attr := range rb.Attributes {
			for _, a := range attr.Attrs {
				block.Attributes[a.Name.Local] = a.Value
			}
		}
		for _, list := range rb.Lists {
			values, ok := block.Lists[list.Key]
			if !ok {
				values = make(map[string]string)
				block.Lists[list.Key] = values
			}
			for _, val := range list.Vals {
				for _, a := range val.Attrs {
					values[a.Name.Local] = a.Value
				}
			}
		}
	}

	return obj
}

// Object returns the object with the given id
func (d *Document) Object(id string) (*Object, bool) {
	obj, ok := d.byID[id]
	return obj, ok
}

// NameOf resolves an id to its object name
func (d *Document) NameOf(id string) (string, bool) {
	obj, ok := d.byID[id]
	if !ok {
		return "", false
	}
	return obj.Name, true
}

// Raw returns the source text of an object
func (o *Object) Raw(content string) string {
	end := o.Span.Offset + o.Span.Length
	if o.Span.Offset < 0 || end > int64(len(content)) {
		return ""
	}
	return content[o.Span.Offset:end]
}

// HasBlock reports whether the object carries the named block
func (o *Object) HasBlock(block string) bool {
	_, ok := o.Blocks[block]
	return ok
}

// Has reports whether key is present in the block
func (o *Object) Has(block, key string) bool {
	b, ok := o.Blocks[block]
	if !ok {
		return false
	}
	_, ok = b.Attributes[key]
	return ok
}

// Attr returns a plain attribute value, or "" when absent
func (o *Object) Attr(block, key string) string {
	b, ok := o.Blocks[block]
	if !ok {
		return ""
	}
	return b.Attributes[key]
}

// Int returns a numeric attribute, or 0 when absent or not a number.
// Fractional values are floored.
func (o *Object) Int(block, key string) int {
	return toInt(o.Attr(block, key))
}

// List returns an attribute list, or an empty map when absent
func (o *Object) List(block, key string) map[string]string {
	b, ok := o.Blocks[block]
	if !ok {
		return map[string]string{}
	}
	values, ok := b.Lists[key]
	if !ok {
		return map[string]string{}
	}
	return values
}

func toInt(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(math.Floor(f))
	}
	return 0
}
