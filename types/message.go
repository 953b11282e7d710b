package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf16"
)

type Message struct {
	MessageID             int64               `json:"message_id"`
	From                  *User               `json:"from,omitempty"` // empty in channels
	SenderChat            *Chat               `json:"sender_chat,omitempty"`
	Date                  int64               `json:"date"`
	Chat                  Chat                `json:"chat"`
	ForwardFrom           *User               `json:"forward_from,omitempty"`
	ForwardFromChat       *Chat               `json:"forward_from_chat,omitempty"`
	ForwardFromMessageID  int64               `json:"forward_from_message_id,omitempty"`
	ForwardSignature      string              `json:"forward_signature,omitempty"`
	ForwardSenderName     string              `json:"forward_sender_name,omitempty"`
	ForwardDate           int64               `json:"forward_date,omitempty"`
	ReplyToMessage        *Message            `json:"reply_to_message,omitempty"`
	ViaBot                *User               `json:"via_bot,omitempty"`
	EditDate              int64               `json:"edit_date,omitempty"`
	MediaGroupID          string              `json:"media_group_id,omitempty"`
	AuthorSignature       string              `json:"author_signature,omitempty"`
	Text                  string              `json:"text,omitempty"`
	Entities              []MessageEntity     `json:"entities,omitempty"`
	CaptionEntities       []MessageEntity     `json:"caption_entities,omitempty"`
	Audio                 *Audio              `json:"audio,omitempty"`
	Document              *Document           `json:"document,omitempty"`
	Animation             *Animation          `json:"animation,omitempty"`
	Game                  *Game               `json:"game,omitempty"`
	Photo                 []PhotoSize         `json:"photo,omitempty"`
	Sticker               *Sticker            `json:"sticker,omitempty"`
	Video                 *Video              `json:"video,omitempty"`
	Voice                 *Voice              `json:"voice,omitempty"`
	VideoNote             *VideoNote          `json:"video_note,omitempty"`
	Caption               string              `json:"caption,omitempty"`
	Contact               *Contact            `json:"contact,omitempty"`
	Location              *Location           `json:"location,omitempty"`
	Venue                 *Venue              `json:"venue,omitempty"`
	Poll                  *Poll               `json:"poll,omitempty"`
	NewChatMembers        []User              `json:"new_chat_members,omitempty"`
	LeftChatMember        *User               `json:"left_chat_member,omitempty"`
	NewChatTitle          string              `json:"new_chat_title,omitempty"`
	NewChatPhoto          []PhotoSize         `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto       bool                `json:"delete_chat_photo,omitempty"`
	GroupChatCreated      bool                `json:"group_chat_created,omitempty"`
	SupergroupChatCreated bool                `json:"supergroup_chat_created,omitempty"`
	MigrateToChatID       int64               `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID     int64               `json:"migrate_from_chat_id,omitempty"`
	PinnedMessage         *Message            `json:"pinned_message,omitempty"`
	ConnectedWebsite      string              `json:"connected_website,omitempty"`

	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type MessageEntityType string

const (
	EntityMention       MessageEntityType = "mention"
	EntityHashtag       MessageEntityType = "hashtag"
	EntityCashtag       MessageEntityType = "cashtag"
	EntityBotCommand    MessageEntityType = "bot_command"
	EntityURL           MessageEntityType = "url"
	EntityEmail         MessageEntityType = "email"
	EntityPhoneNumber   MessageEntityType = "phone_number"
	EntityBold          MessageEntityType = "bold"
	EntityItalic        MessageEntityType = "italic"
	EntityUnderline     MessageEntityType = "underline"
	EntityStrikethrough MessageEntityType = "strikethrough"
	EntitySpoiler       MessageEntityType = "spoiler"
	EntityCode          MessageEntityType = "code"
	EntityPre           MessageEntityType = "pre"
	EntityTextLink      MessageEntityType = "text_link"
	EntityTextMention   MessageEntityType = "text_mention"
)

// MessageEntity marks a span of text. Offset and Length count UTF-16 code units.
type MessageEntity struct {
	Type     MessageEntityType `json:"type"`
	Offset   int               `json:"offset"`
	Length   int               `json:"length"`
	URL      string            `json:"url,omitempty"`
	User     *User             `json:"user,omitempty"`
	Language string            `json:"language,omitempty"`
}

// Command is a bot command found at the start of a message.
type Command struct {
	Name     string // "/start", without any @username suffix
	Username string // the bot addressed with /start@username, if any
	Args     string // text after the command, trimmed
	Entity   MessageEntity
}

// Command extracts the bot command starting at offset 0, if there is one.
func (m *Message) Command() (Command, bool) {
	if m.Text == "" {
		return Command{}, false
	}
	for _, e := range m.Entities {
		if e.Type != EntityBotCommand || e.Offset != 0 {
			continue
		}
		units := utf16.Encode([]rune(m.Text))
		if e.Length <= 0 || e.Length > len(units) {
			return Command{}, false
		}
		text := string(utf16.Decode(units[:e.Length]))
		rest := string(utf16.Decode(units[e.Length:]))

		name, username, _ := strings.Cut(text, "@")
		return Command{
			Name:     name,
			Username: username,
			Args:     strings.TrimSpace(rest),
			Entity:   e,
		}, true
	}
	return Command{}, false
}

// MessageOrBool is the result of edit methods: the edited message, or true
// when an inline message was edited.
type MessageOrBool struct {
	Message *Message
	OK      bool
}

func (r *MessageOrBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte("false")) {
		r.Message = nil
		return json.Unmarshal(trimmed, &r.OK)
	}
	var m Message
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	r.Message = &m
	r.OK = true
	return nil
}

func (r MessageOrBool) MarshalJSON() ([]byte, error) {
	if r.Message != nil {
		return json.Marshal(r.Message)
	}
	return json.Marshal(r.OK)
}
