package model

const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"
)

// Message is one entry of the client's messages array. Content is either a
// plain string or an array of typed content parts.
type Message struct {
	Role       string  `json:"role,omitempty"`
	Content    any     `json:"content,omitempty"`
	Name       *string `json:"name,omitempty"`
	ToolCalls  []Tool  `json:"tool_calls,omitempty"`
	ToolCallId string  `json:"tool_call_id,omitempty"`
}

// MessageContent is a single part of a multi-part message content.
type MessageContent struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// IsStringContent reports whether Content is a plain string.
func (m Message) IsStringContent() bool {
	_, ok := m.Content.(string)
	return ok
}

// StringContent flattens Content into plain text. For multi-part content the
// text parts are concatenated in order; non-text parts contribute nothing.
func (m Message) StringContent() string {
	content, ok := m.Content.(string)
	if ok {
		return content
	}
	contentList, ok := m.Content.([]any)
	if !ok {
		return ""
	}
	var contentStr string
	for _, contentItem := range contentList {
		contentMap, ok := contentItem.(map[string]any)
		if !ok {
			continue
		}
		if contentMap["type"] == ContentTypeText {
			if subStr, ok := contentMap["text"].(string); ok {
				contentStr += subStr
			}
		}
	}
	return contentStr
}

// ParseContent normalizes Content into a list of typed parts. A plain string
// becomes a single text part. Image parts are preserved here and dropped by
// translators that do not support them.
func (m Message) ParseContent() []MessageContent {
	var contentList []MessageContent
	content, ok := m.Content.(string)
	if ok {
		contentList = append(contentList, MessageContent{
			Type: ContentTypeText,
			Text: content,
		})
		return contentList
	}
	anyList, ok := m.Content.([]any)
	if !ok {
		return contentList
	}
	for _, contentItem := range anyList {
		contentMap, ok := contentItem.(map[string]any)
		if !ok {
			continue
		}
		switch contentMap["type"] {
		case ContentTypeText:
			if subStr, ok := contentMap["text"].(string); ok {
				contentList = append(contentList, MessageContent{
					Type: ContentTypeText,
					Text: subStr,
				})
			}
		case ContentTypeImageURL:
			contentList = append(contentList, MessageContent{
				Type: ContentTypeImageURL,
			})
		}
	}
	return contentList
}
