package document

import (
	"encoding/json"
	"fmt"
)

// Block is one typed unit of parsed document layout. The parser emits a flat
// stream of blocks, each tagged with the zero-based page it came from; blocks
// for a given page preserve source order.
type Block interface {
	PageIndex() int
}

// Text is a paragraph or heading block. HeadingLevel is zero for plain
// paragraphs and 1..6 for headings.
type Text struct {
	Text         string
	HeadingLevel int
	PageIdx      int
}

// Image references an extracted figure by its logical path.
type Image struct {
	Path     string
	Captions []string
	PageIdx  int
}

// List is an ordered or unordered list of plain-text items.
type List struct {
	Ordered bool
	Items   []string
	PageIdx int
}

func (t Text) PageIndex() int  { return t.PageIdx }
func (i Image) PageIndex() int { return i.PageIdx }
func (l List) PageIndex() int  { return l.PageIdx }

// IsHeading reports whether the text block is a heading.
func (t Text) IsHeading() bool { return t.HeadingLevel > 0 }

// blockJSON is the wire shape of the tagged union, discriminated by "type".
type blockJSON struct {
	Type         string   `json:"type"`
	Text         string   `json:"text,omitempty"`
	HeadingLevel int      `json:"heading_level,omitempty"`
	Path         string   `json:"path,omitempty"`
	Captions     []string `json:"captions,omitempty"`
	Ordered      bool     `json:"ordered,omitempty"`
	Items        []string `json:"items,omitempty"`
	PageIdx      int      `json:"page_idx"`
}

// BlockList decodes the heterogeneous metadata array of a parsed document.
type BlockList []Block

func (bl *BlockList) UnmarshalJSON(data []byte) error {
	var raw []blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blocks := make([]Block, 0, len(raw))
	for i, r := range raw {
		switch r.Type {
		case "text":
			blocks = append(blocks, Text{Text: r.Text, HeadingLevel: r.HeadingLevel, PageIdx: r.PageIdx})
		case "image":
			blocks = append(blocks, Image{Path: r.Path, Captions: r.Captions, PageIdx: r.PageIdx})
		case "list":
			blocks = append(blocks, List{Ordered: r.Ordered, Items: r.Items, PageIdx: r.PageIdx})
		default:
			return fmt.Errorf("block %d: unknown type %q", i, r.Type)
		}
	}

	*bl = blocks
	return nil
}

func (bl BlockList) MarshalJSON() ([]byte, error) {
	raw := make([]blockJSON, 0, len(bl))
	for i, b := range bl {
		switch v := b.(type) {
		case Text:
			raw = append(raw, blockJSON{Type: "text", Text: v.Text, HeadingLevel: v.HeadingLevel, PageIdx: v.PageIdx})
		case Image:
			raw = append(raw, blockJSON{Type: "image", Path: v.Path, Captions: v.Captions, PageIdx: v.PageIdx})
		case List:
			raw = append(raw, blockJSON{Type: "list", Ordered: v.Ordered, Items: v.Items, PageIdx: v.PageIdx})
		default:
			return nil, fmt.Errorf("block %d: unsupported type %T", i, b)
		}
	}
	return json.Marshal(raw)
}
