package chatgpt

import "encoding/json"

// Conversation is the backend's representation of a single chat: a tree
// of message nodes keyed by node ID with parent links.
type Conversation struct {
	Title      string          `json:"title"`
	CreateTime float64         `json:"create_time"`
	UpdateTime float64         `json:"update_time"`
	Mapping    map[string]Node `json:"mapping"`

	// Raw holds the unmodified response body for saving to disk.
	Raw json.RawMessage `json:"-"`
}

// Node is one entry in the conversation mapping. Nodes without a
// message are structural (roots and tool scaffolding).
type Node struct {
	ID      string      `json:"id"`
	Parent  string      `json:"parent"`
	Message *RawMessage `json:"message"`
}

// RawMessage is the wire shape of a message inside a node.
type RawMessage struct {
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	Content struct {
		ContentType string `json:"content_type"`
		Parts       []any  `json:"parts"`
	} `json:"content"`
	CreateTime *float64       `json:"create_time"`
	Metadata   map[string]any `json:"metadata"`
}

// Message is a flattened, display-ready message.
type Message struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	CreateTime float64 `json:"create_time,omitempty"`
	Parent     string  `json:"parent,omitempty"`
}

// ConversationList is a page of the recent-conversation listing.
type ConversationList struct {
	Items  []ConversationItem `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// ConversationItem is a single listing entry.
type ConversationItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	UpdateTime string `json:"update_time"`
}
