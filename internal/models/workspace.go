// ABOUTME: Workspace block and database row types as seen by the crawler
// ABOUTME: Decouples crawl traversal from the Notion API client types
package models

import (
	"fmt"
	"strings"
)

// BlockType classifies a child block for traversal purposes
type BlockType string

const (
	BlockParagraph     BlockType = "paragraph"
	BlockHeading       BlockType = "heading"
	BlockListItem      BlockType = "list_item"
	BlockChildPage     BlockType = "child_page"
	BlockChildDatabase BlockType = "child_database"
	BlockOther         BlockType = "other"
)

// IsContent reports whether the block contributes text directly
func (t BlockType) IsContent() bool {
	switch t {
	case BlockParagraph, BlockHeading, BlockListItem:
		return true
	}
	return false
}

// Block is an immediate child of a page
type Block struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`
}

// Row is one entry of an embedded database with the fields the crawler summarizes
type Row struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Tags     []string `json:"tags,omitempty"`
	Location string   `json:"location"`
}

// Summary renders the row as a single human-readable line
func (r Row) Summary() string {
	return fmt.Sprintf("%s — %s. Tags: %s. Location: %s", r.Name, r.Role, strings.Join(r.Tags, ", "), r.Location)
}
