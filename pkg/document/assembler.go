package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Assembler groups a flat block stream into per-page markdown strings.
// Assembly is wholesale: every change to the block list recomputes all pages.
type Assembler struct {
	pageMarkers bool
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithPageMarkers prepends a fenced page-index marker to every page. The
// rendering layer turns the fence into an invisible element carrying the
// page index, which is how the viewport tracker's host finds page anchors.
func WithPageMarkers() AssemblerOption {
	return func(a *Assembler) { a.pageMarkers = true }
}

// NewAssembler creates a page assembler.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble distributes blocks into pages by page index and renders each page
// to a single markdown string. The result always has max(page_idx)+1 entries;
// pages with no blocks render as the empty string. A nil or empty input
// yields no pages.
func (a *Assembler) Assemble(blocks []Block) []string {
	if len(blocks) == 0 {
		return nil
	}

	maxPage := 0
	for _, b := range blocks {
		if b.PageIndex() > maxPage {
			maxPage = b.PageIndex()
		}
	}

	grouped := make([][]Block, maxPage+1)
	for _, b := range blocks {
		idx := b.PageIndex()
		if idx < 0 {
			continue
		}
		grouped[idx] = append(grouped[idx], b)
	}

	pages := make([]string, maxPage+1)
	for idx, items := range grouped {
		pages[idx] = a.renderPage(idx, items)
	}
	return pages
}

func (a *Assembler) renderPage(pageIdx int, items []Block) string {
	var out []string

	i := 0
	for i < len(items) {
		// The parser splits document titles across adjacent level-1 heading
		// blocks; re-join each run into a single top-level heading.
		if t, ok := items[i].(Text); ok && t.HeadingLevel == 1 {
			parts := []string{t.Text}
			i++
			for i < len(items) {
				next, ok := items[i].(Text)
				if !ok || next.HeadingLevel != 1 {
					break
				}
				parts = append(parts, next.Text)
				i++
			}
			out = append(out, "# "+strings.Join(parts, " "))
			continue
		}

		md := strings.TrimSpace(Render(items[i]))
		if md != "" {
			out = append(out, md)
		}
		i++
	}

	body := strings.Join(out, "\n\n")
	if !a.pageMarkers {
		return body
	}
	fence := strings.Join([]string{"```page", strconv.Itoa(pageIdx), "```"}, "\n")
	return fence + "\n\n" + body
}

// Render converts a single block to its markdown fragment. This is the one
// formatter for the block union; the assembler and any preview code share it.
func Render(b Block) string {
	switch v := b.(type) {
	case Text:
		if v.HeadingLevel > 0 {
			level := v.HeadingLevel
			if level > 6 {
				level = 6
			}
			return strings.Repeat("#", level) + " " + v.Text
		}
		return v.Text
	case Image:
		caption := strings.Join(v.Captions, " ")
		safe := strings.ReplaceAll(caption, `"`, `\"`)
		return fmt.Sprintf(`![](%s "%s")`, v.Path, safe)
	case List:
		lines := make([]string, len(v.Items))
		for i, item := range v.Items {
			if v.Ordered {
				lines[i] = fmt.Sprintf("%d. %s", i+1, item)
			} else {
				lines[i] = "- " + item
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
