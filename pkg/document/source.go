package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Asset carries an extracted image payload inline with the parsed document so
// the reader never needs a second round trip for figures.
type Asset struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64, no data: prefix
	Mime string `json:"mime"`
}

// SourceDocument is the JSON object the parsing backend uploads for a title.
// It is fetched via a presigned URL; this package only consumes its shape.
type SourceDocument struct {
	Markdown string    `json:"markdown,omitempty"`
	Assets   []Asset   `json:"assets"`
	Metadata BlockList `json:"metadata"`
}

// ParseSource decodes a parsed document payload.
func ParseSource(data []byte) (*SourceDocument, error) {
	var doc SourceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse source document: %w", err)
	}
	return &doc, nil
}

// AssetResolver maps image references in assembled markdown back to the
// inline base64 payloads shipped with the document.
type AssetResolver struct {
	byName map[string]string
}

// NewAssetResolver indexes assets by logical name.
func NewAssetResolver(assets []Asset) *AssetResolver {
	byName := make(map[string]string, len(assets))
	for _, a := range assets {
		byName[a.Name] = fmt.Sprintf("data:%s;base64,%s", a.Mime, a.Data)
	}
	return &AssetResolver{byName: byName}
}

// Resolve returns the data URI for src, trying the full reference first and
// then its path basename. Unknown references pass through unchanged so
// genuinely external URLs keep working.
func (r *AssetResolver) Resolve(src string) string {
	if src == "" {
		return ""
	}
	if uri, ok := r.byName[src]; ok {
		return uri
	}
	base := src
	if idx := strings.LastIndex(src, "/"); idx >= 0 && idx < len(src)-1 {
		base = src[idx+1:]
	}
	if uri, ok := r.byName[base]; ok {
		return uri
	}
	return src
}
