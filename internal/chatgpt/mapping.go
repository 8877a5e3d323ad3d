package chatgpt

import (
	"fmt"
	"sort"
	"strings"
)

// FlattenMessages turns a conversation's node tree into a time-ordered
// message list. Structural nodes, hidden messages, and non-text content
// are dropped; multi-part messages are joined with newlines.
func FlattenMessages(conv *Conversation) []Message {
	var messages []Message

	for nodeID, node := range conv.Mapping {
		msg := node.Message
		if msg == nil {
			continue
		}

		if hidden, ok := msg.Metadata["is_visually_hidden_from_conversation"].(bool); ok && hidden {
			continue
		}

		if msg.Content.ContentType != "text" {
			continue
		}

		text := joinParts(msg.Content.Parts)
		if strings.TrimSpace(text) == "" {
			continue
		}

		role := msg.Author.Role
		if role == "" {
			role = "unknown"
		}

		var createTime float64
		if msg.CreateTime != nil {
			createTime = *msg.CreateTime
		}

		messages = append(messages, Message{
			ID:         nodeID,
			Role:       role,
			Content:    text,
			CreateTime: createTime,
			Parent:     node.Parent,
		})
	}

	// Missing create times sort first; node IDs break ties so output is
	// stable across runs (map iteration order is random).
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreateTime == messages[j].CreateTime {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreateTime < messages[j].CreateTime
	})

	return messages
}

// joinParts concatenates non-empty parts with newlines. The API mixes
// part types, so non-strings are formatted with %v.
func joinParts(parts []any) string {
	var sb strings.Builder
	for _, p := range parts {
		if p == nil {
			continue
		}
		s, ok := p.(string)
		if !ok {
			s = fmt.Sprintf("%v", p)
		}
		if s == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s)
	}
	return sb.String()
}
