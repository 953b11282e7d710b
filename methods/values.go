// Package methods is the request catalogue. Every type here is a request
// value: its exported fields are the parameters and the embedded
// message.Post or message.Get fixes the verb and the result type.
package methods

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ChatID addresses a chat by numeric id or by "@username" for public
// channels and supergroups.
type ChatID struct {
	ID       int64
	Username string
}

func ChatByID(id int64) ChatID { return ChatID{ID: id} }

// ChatByUsername adds the leading '@' when it is missing.
func ChatByUsername(username string) ChatID {
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return ChatID{Username: username}
}

// ParseChatID reads a numeric id or an @username.
func ParseChatID(s string) (ChatID, error) {
	if strings.HasPrefix(s, "@") {
		return ChatByUsername(s), nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ChatID{}, errors.New("chat id must be a number or @username: " + s)
	}
	return ChatByID(id), nil
}

func (c ChatID) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

var errNoChat = errors.New("chat id has neither id nor username")

func (c ChatID) Validate() error {
	if c.ID == 0 && c.Username == "" {
		return errNoChat
	}
	return nil
}

func (c ChatID) MarshalJSON() ([]byte, error) {
	if c.Username != "" {
		return json.Marshal(c.Username)
	}
	if c.ID == 0 {
		return nil, errNoChat
	}
	return strconv.AppendInt(nil, c.ID, 10), nil
}

func (c *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseChatID(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = ChatByID(id)
	return nil
}

type ParseMode string

const (
	ModeHTML       ParseMode = "HTML"
	ModeMarkdown   ParseMode = "Markdown"
	ModeMarkdownV2 ParseMode = "MarkdownV2"
)

type ChatAction string

const (
	ActionTyping          ChatAction = "typing"
	ActionUploadPhoto     ChatAction = "upload_photo"
	ActionRecordVideo     ChatAction = "record_video"
	ActionUploadVideo     ChatAction = "upload_video"
	ActionRecordVoice     ChatAction = "record_voice"
	ActionUploadVoice     ChatAction = "upload_voice"
	ActionUploadDocument  ChatAction = "upload_document"
	ActionChooseSticker   ChatAction = "choose_sticker"
	ActionFindLocation    ChatAction = "find_location"
	ActionRecordVideoNote ChatAction = "record_video_note"
	ActionUploadVideoNote ChatAction = "upload_video_note"
)

// UpdateType names an Update field, for allowed_updates lists.
type UpdateType string

const (
	UpdateMessage            UpdateType = "message"
	UpdateEditedMessage      UpdateType = "edited_message"
	UpdateChannelPost        UpdateType = "channel_post"
	UpdateEditedChannelPost  UpdateType = "edited_channel_post"
	UpdateInlineQuery        UpdateType = "inline_query"
	UpdateChosenInlineResult UpdateType = "chosen_inline_result"
	UpdateCallbackQuery      UpdateType = "callback_query"
	UpdatePoll               UpdateType = "poll"
	UpdatePollAnswer         UpdateType = "poll_answer"
	UpdateMyChatMember       UpdateType = "my_chat_member"
	UpdateChatMember         UpdateType = "chat_member"
)
