package hybrid

import (
	"encoding/hex"
	"encoding/json"
)

type ContentKind int

const (
	// ContentText is an ordinary chat message.
	ContentText ContentKind = iota
	// ContentKeyPublish is a key-announcement control record; callers
	// filter it out of chat history.
	ContentKeyPublish
)

type (
	// Content is the parsed form of a decrypted payload.
	Content struct {
		Kind           ContentKind
		Text           string
		ReplyToID      string
		ReplyToPreview string
	}

	wireContent struct {
		Type    string     `json:"type,omitempty"`
		Key     string     `json:"key,omitempty"`
		Text    *string    `json:"text,omitempty"`
		ReplyTo *wireReply `json:"replyTo,omitempty"`
	}

	wireReply struct {
		ID      string `json:"id"`
		Preview string `json:"preview,omitempty"`
	}
)

// ParseContent interprets a decrypted payload. A payload opening with '{'
// may be a key-publish control record or a structured message; anything
// else, including JSON that fails to parse, is the text verbatim.
func ParseContent(b []byte) *Content {
	if len(b) > 0 && b[0] == '{' {
		var w wireContent
		if err := json.Unmarshal(b, &w); err == nil {
			if w.Type == "key-publish" {
				return &Content{Kind: ContentKeyPublish}
			}
			if w.Text != nil {
				c := &Content{Kind: ContentText, Text: *w.Text}
				if w.ReplyTo != nil {
					c.ReplyToID = w.ReplyTo.ID
					c.ReplyToPreview = w.ReplyTo.Preview
				}
				return c
			}
		}
	}
	return &Content{Kind: ContentText, Text: string(b)}
}

// EncodeMessage renders a chat message payload. Plain messages go out as raw
// text; replies need the structured form.
func EncodeMessage(text, replyToID, replyToPreview string) []byte {
	if replyToID == "" {
		return []byte(text)
	}
	b, _ := json.Marshal(wireContent{
		Text:    &text,
		ReplyTo: &wireReply{ID: replyToID, Preview: replyToPreview},
	})
	return b
}

// EncodeKeyPublish renders the key-announcement control record.
func EncodeKeyPublish(encryptionKey [32]byte) []byte {
	b, _ := json.Marshal(wireContent{
		Type: "key-publish",
		Key:  hex.EncodeToString(encryptionKey[:]),
	})
	return b
}
