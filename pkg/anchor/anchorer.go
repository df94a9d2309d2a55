// Package anchor relocates the literal text of saved annotations inside
// freshly assembled page text and wraps each match in inline highlight
// markup. Re-parsed documents may reflow whitespace or drop phrasing
// entirely, so matching degrades from exact to whitespace-tolerant and a
// miss is silently skipped rather than treated as an error.
package anchor

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

const (
	markOpenPrefix = "<mark"
	markClose      = "</mark>"

	// Window inspected around a candidate span for existing highlight tags.
	tagGuardWindow = 10
)

// Entry is one saved annotation. Text/Annotation are the current fields;
// Comment is the legacy combined field older saves carry instead.
type Entry struct {
	BookTitle  string `json:"book_title"`
	PageNum    int    `json:"page_num"` // 1-based
	Text       string `json:"text,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// Highlight returns the effective highlighted source text.
func (e Entry) Highlight() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Comment
}

// CommentText returns the effective user comment.
func (e Entry) CommentText() string {
	if e.Annotation != "" {
		return e.Annotation
	}
	return e.Comment
}

// Anchorer anchors annotations onto assembled page text.
type Anchorer struct {
	tolerance int
}

// Option configures an Anchorer.
type Option func(*Anchorer)

// WithPageTolerance accepts notes whose 1-based page number is within n of
// the target page, absorbing off-by-one drift from re-pagination between
// save time and load time. The default is strict equality.
func WithPageTolerance(n int) Option {
	return func(a *Anchorer) { a.tolerance = n }
}

// New creates an Anchorer.
func New(opts ...Option) *Anchorer {
	a := &Anchorer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Addressable reports whether the entry's 1-based page maps onto the given
// 0-based page index under the configured tolerance.
func (a *Anchorer) Addressable(e Entry, pageIdx int) bool {
	diff := e.PageNum - (pageIdx + 1)
	if diff < 0 {
		diff = -diff
	}
	return diff <= a.tolerance
}

// ForPage filters entries addressable on the given 0-based page index.
func (a *Anchorer) ForPage(entries []Entry, pageIdx int) []Entry {
	var out []Entry
	for _, e := range entries {
		if a.Addressable(e, pageIdx) {
			out = append(out, e)
		}
	}
	return out
}

type span struct {
	start, end int
	entry      Entry
}

// Annotate finds every annotation's highlight inside pageText and wraps the
// accepted matches in <mark> elements carrying the original highlight and
// comment as URL-encoded data attributes. The returned text has non-breaking
// spaces normalized; annotations that no longer occur are skipped.
func (a *Anchorer) Annotate(pageText string, entries []Entry) string {
	target := normalizeSpaces(pageText)

	// Longest highlight first, so a short annotation cannot claim a span
	// inside a longer one's match.
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Highlight()) > len(sorted[j].Highlight())
	})

	var accepted []span
	for _, e := range sorted {
		needle := strings.TrimSpace(normalizeSpaces(e.Highlight()))
		if needle == "" {
			continue
		}

		matches := directMatches(target, needle)
		if len(matches) == 0 {
			matches = flexibleMatches(target, needle)
		}

		for _, m := range matches {
			if overlapsAny(m[0], m[1], accepted) {
				continue
			}
			accepted = append(accepted, span{start: m[0], end: m[1], entry: e})
		}
	}

	// Insert markup highest offset first so earlier offsets stay valid.
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].start > accepted[j].start
	})

	out := target
	for _, s := range accepted {
		if hasNearbyTag(out, s.start, s.end) {
			continue
		}
		out = out[:s.start] + wrap(out[s.start:s.end], s.entry) + out[s.end:]
	}
	return out
}

// LookupByText returns every entry whose effective highlight matches the
// selected text after collapsing whitespace and lowercasing both sides.
// Used for click-to-open and live highlighting while composing a new note.
func LookupByText(entries []Entry, selected string) []Entry {
	key := foldText(selected)
	if key == "" {
		return nil
	}

	var out []Entry
	for _, e := range entries {
		if foldText(e.Highlight()) == key {
			out = append(out, e)
		}
	}
	return out
}

func normalizeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", " ")
}

var spaceRuns = regexp.MustCompile(`\s+`)

func foldText(s string) string {
	s = normalizeSpaces(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// directMatches scans for the needle verbatim, case-insensitively. The scan
// resumes immediately after each match end, so adjacent repeats all match.
func directMatches(target, needle string) [][]int {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(needle))
	if err != nil {
		return nil
	}
	return re.FindAllStringIndex(target, -1)
}

// flexibleMatches tolerates variable inter-word whitespace, catching
// highlights broken by line-wrapping in the reflowed text.
func flexibleMatches(target, needle string) [][]int {
	segments := strings.Fields(needle)
	if len(segments) == 0 {
		return nil
	}
	for i, seg := range segments {
		segments[i] = regexp.QuoteMeta(seg)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(segments, `\s+`))
	if err != nil {
		return nil
	}
	return re.FindAllStringIndex(target, -1)
}

func overlapsAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if !(end <= s.start || start >= s.end) {
			return true
		}
	}
	return false
}

// hasNearbyTag guards against double-nesting: an open tag just before the
// span or a close tag just after means this stretch is already highlighted.
func hasNearbyTag(text string, start, end int) bool {
	lo := start - tagGuardWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + tagGuardWindow
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Contains(text[lo:start], markOpenPrefix) ||
		strings.Contains(text[end:hi], markClose)
}

func wrap(matched string, e Entry) string {
	var b strings.Builder
	b.WriteString(`<mark data-highlight="`)
	b.WriteString(encodeAttr(e.Highlight()))
	b.WriteString(`"`)
	if comment := strings.TrimSpace(e.CommentText()); comment != "" {
		b.WriteString(` data-annotation="`)
		b.WriteString(encodeAttr(comment))
		b.WriteString(`"`)
	}
	b.WriteString(`>`)
	b.WriteString(matched)
	b.WriteString(markClose)
	return b.String()
}

// encodeAttr URL-encodes an attribute value; malformed input degrades to an
// empty attribute instead of breaking the page.
func encodeAttr(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeAttr reverses encodeAttr for click-to-reveal handlers. Corrupt
// values decode to the empty string rather than erroring.
func DecodeAttr(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return ""
	}
	return decoded
}
