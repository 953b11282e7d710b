package methods

import (
	"mini-botapi/message"
	"mini-botapi/types"
)

type SendMessage struct {
	message.Post[types.Message]
	ChatID                   ChatID                `json:"chat_id"`
	Text                     string                `json:"text"`
	ParseMode                ParseMode             `json:"parse_mode,omitempty"`
	Entities                 []types.MessageEntity `json:"entities,omitempty"`
	DisableWebPagePreview    bool                  `json:"disable_web_page_preview,omitempty"`
	DisableNotification      bool                  `json:"disable_notification,omitempty"`
	ReplyToMessageID         int64                 `json:"reply_to_message_id,omitempty"`
	AllowSendingWithoutReply bool                  `json:"allow_sending_without_reply,omitempty"`
	ReplyMarkup              types.ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (SendMessage) Endpoint() string { return "sendMessage" }

// SendChatAction shows a status such as "typing" for up to five seconds.
type SendChatAction struct {
	message.Post[bool]
	ChatID ChatID     `json:"chat_id"`
	Action ChatAction `json:"action"`
}

func (SendChatAction) Endpoint() string { return "sendChatAction" }

type SendPhoto struct {
	message.Post[types.Message]
	ChatID              ChatID                `json:"chat_id"`
	Photo               message.InputFile     `json:"photo"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           ParseMode             `json:"parse_mode,omitempty"`
	CaptionEntities     []types.MessageEntity `json:"caption_entities,omitempty"`
	DisableNotification bool                  `json:"disable_notification,omitempty"`
	ReplyToMessageID    int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup         types.ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (SendPhoto) Endpoint() string { return "sendPhoto" }

type SendDocument struct {
	message.Post[types.Message]
	ChatID                      ChatID                `json:"chat_id"`
	Document                    message.InputFile     `json:"document"`
	Thumbnail                   *message.InputFile    `json:"thumb,omitempty"`
	Caption                     string                `json:"caption,omitempty"`
	ParseMode                   ParseMode             `json:"parse_mode,omitempty"`
	CaptionEntities             []types.MessageEntity `json:"caption_entities,omitempty"`
	DisableContentTypeDetection bool                  `json:"disable_content_type_detection,omitempty"`
	DisableNotification         bool                  `json:"disable_notification,omitempty"`
	ReplyToMessageID            int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup                 types.ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (SendDocument) Endpoint() string { return "sendDocument" }

type SendVideo struct {
	message.Post[types.Message]
	ChatID              ChatID                `json:"chat_id"`
	Video               message.InputFile     `json:"video"`
	Duration            int                   `json:"duration,omitempty"`
	Width               int                   `json:"width,omitempty"`
	Height              int                   `json:"height,omitempty"`
	Thumbnail           *message.InputFile    `json:"thumb,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           ParseMode             `json:"parse_mode,omitempty"`
	CaptionEntities     []types.MessageEntity `json:"caption_entities,omitempty"`
	SupportsStreaming   bool                  `json:"supports_streaming,omitempty"`
	DisableNotification bool                  `json:"disable_notification,omitempty"`
	ReplyToMessageID    int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup         types.ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (SendVideo) Endpoint() string { return "sendVideo" }

type SendAnimation struct {
	message.Post[types.Message]
	ChatID              ChatID                `json:"chat_id"`
	Animation           message.InputFile     `json:"animation"`
	Duration            int                   `json:"duration,omitempty"`
	Width               int                   `json:"width,omitempty"`
	Height              int                   `json:"height,omitempty"`
	Thumbnail           *message.InputFile    `json:"thumb,omitempty"`
	Caption             string                `json:"caption,omitempty"`
	ParseMode           ParseMode             `json:"parse_mode,omitempty"`
	CaptionEntities     []types.MessageEntity `json:"caption_entities,omitempty"`
	DisableNotification bool                  `json:"disable_notification,omitempty"`
	ReplyToMessageID    int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup         types.ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (SendAnimation) Endpoint() string { return "sendAnimation" }

// GetFile resolves a file id to a path for Client.DownloadFile.
type GetFile struct {
	message.Post[types.File]
	FileID string `json:"file_id"`
}

func (GetFile) Endpoint() string { return "getFile" }
