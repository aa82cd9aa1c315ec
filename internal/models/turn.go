// ABOUTME: Conversation messages and the per-request Query type
// ABOUTME: History turns are carried as (role, content) pairs in order
package models

import (
	"errors"
	"strings"
)

// Chat roles accepted in conversation history
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsConversational reports whether the message may be replayed as history
func (m Message) IsConversational() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}

// Query is a single question plus the conversation that led to it
type Query struct {
	Text    string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

// NewQuery creates a Query with validation
func NewQuery(text string, history []Message) (*Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query text cannot be empty")
	}
	return &Query{Text: text, History: history}, nil
}
