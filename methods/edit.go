package methods

import (
	"errors"

	"mini-botapi/message"
	"mini-botapi/types"
)

// MessageRef points at a message to edit: a chat and message id, or the id
// of a message sent through inline mode.
type MessageRef struct {
	ChatID          *ChatID `json:"chat_id,omitempty"`
	MessageID       int64   `json:"message_id,omitempty"`
	InlineMessageID string  `json:"inline_message_id,omitempty"`
}

func InChat(chat ChatID, messageID int64) MessageRef {
	return MessageRef{ChatID: &chat, MessageID: messageID}
}

func Inline(inlineMessageID string) MessageRef {
	return MessageRef{InlineMessageID: inlineMessageID}
}

var errMessageRef = errors.New("need either chat_id and message_id or inline_message_id")

func (r MessageRef) Validate() error {
	if r.InlineMessageID != "" {
		if r.ChatID != nil || r.MessageID != 0 {
			return errMessageRef
		}
		return nil
	}
	if r.ChatID == nil || r.MessageID == 0 {
		return errMessageRef
	}
	return r.ChatID.Validate()
}

// EditMessageText returns the edited message, or true for inline messages.
type EditMessageText struct {
	message.Post[types.MessageOrBool]
	MessageRef
	Text                  string                      `json:"text"`
	ParseMode             ParseMode                   `json:"parse_mode,omitempty"`
	Entities              []types.MessageEntity       `json:"entities,omitempty"`
	DisableWebPagePreview bool                        `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (EditMessageText) Endpoint() string { return "editMessageText" }

type EditMessageCaption struct {
	message.Post[types.MessageOrBool]
	MessageRef
	Caption         string                      `json:"caption,omitempty"`
	ParseMode       ParseMode                   `json:"parse_mode,omitempty"`
	CaptionEntities []types.MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup     *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (EditMessageCaption) Endpoint() string { return "editMessageCaption" }

type EditMessageReplyMarkup struct {
	message.Post[types.MessageOrBool]
	MessageRef
	ReplyMarkup *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (EditMessageReplyMarkup) Endpoint() string { return "editMessageReplyMarkup" }

// DeleteMessage only works on messages younger than 48 hours.
type DeleteMessage struct {
	message.Post[bool]
	ChatID    ChatID `json:"chat_id"`
	MessageID int64  `json:"message_id"`
}

func (DeleteMessage) Endpoint() string { return "deleteMessage" }
