// ABOUTME: SourceReference points a piece of crawled text back at its workspace location
// ABOUTME: RawUnit is one crawled (text, source) pair before chunking
package models

import (
	"fmt"
	"strings"
)

// DefaultLinkBase is the Notion web host used to build navigable links
const DefaultLinkBase = "https://www.notion.so"

// SourceReference identifies the page and block (or database row) a text came from
type SourceReference struct {
	PageID  string `json:"page_id"`
	BlockID string `json:"block_id"`
}

// NewSourceReference builds a reference from a page id and a block or row id
func NewSourceReference(pageID, blockID string) SourceReference {
	return SourceReference{PageID: pageID, BlockID: blockID}
}

// URL returns a link of the form base/{page}#{block} with dashes removed from both ids
func (s SourceReference) URL(base string) string {
	if base == "" {
		base = DefaultLinkBase
	}
	base = strings.TrimRight(base, "/")
	page := strings.ReplaceAll(s.PageID, "-", "")
	block := strings.ReplaceAll(s.BlockID, "-", "")
	if block == "" {
		return fmt.Sprintf("%s/%s", base, page)
	}
	return fmt.Sprintf("%s/%s#%s", base, page, block)
}

// String renders the reference using the default link base
func (s SourceReference) String() string {
	return s.URL(DefaultLinkBase)
}

// IsZero reports whether the reference carries no ids
func (s SourceReference) IsZero() bool {
	return s.PageID == "" && s.BlockID == ""
}

// RawUnit is a single crawled text unit with its attribution
type RawUnit struct {
	Text   string          `json:"text"`
	Source SourceReference `json:"source"`
}
