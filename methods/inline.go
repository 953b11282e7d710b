package methods

import (
	"encoding/json"

	"mini-botapi/message"
	"mini-botapi/types"
)

// AnswerCallbackQuery stops the client's progress indicator after a button
// press and can show a notification or alert.
type AnswerCallbackQuery struct {
	message.Post[bool]
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

func (AnswerCallbackQuery) Endpoint() string { return "answerCallbackQuery" }

// AnswerInlineQuery sends at most 50 results for an inline query.
type AnswerInlineQuery struct {
	message.Post[bool]
	InlineQueryID     string              `json:"inline_query_id"`
	Results           []InlineQueryResult `json:"results"`
	CacheTime         int                 `json:"cache_time,omitempty"`
	IsPersonal        bool                `json:"is_personal,omitempty"`
	NextOffset        string              `json:"next_offset,omitempty"`
	SwitchPMText      string              `json:"switch_pm_text,omitempty"`
	SwitchPMParameter string              `json:"switch_pm_parameter,omitempty"`
}

func (AnswerInlineQuery) Endpoint() string { return "answerInlineQuery" }

// InlineQueryResult is one of the InlineQueryResult* types. Each adds its
// "type" key when marshaled.
type InlineQueryResult interface {
	ResultType() string
}

// InputMessageContent is the message sent when an inline result is chosen.
type InputMessageContent interface {
	inputMessageContent()
}

type InputTextMessageContent struct {
	MessageText           string                `json:"message_text"`
	ParseMode             ParseMode             `json:"parse_mode,omitempty"`
	Entities              []types.MessageEntity `json:"entities,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
}

func (InputTextMessageContent) inputMessageContent() {}

type InputLocationMessageContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (InputLocationMessageContent) inputMessageContent() {}

// withType marshals v with a leading "type" key.
func withType(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(map[string]string{"type": typ})
	if err != nil {
		return nil, err
	}
	if len(body) == 2 { // {}
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

type InlineQueryResultArticle struct {
	ID                  string                      `json:"id"`
	Title               string                      `json:"title"`
	InputMessageContent InputMessageContent         `json:"input_message_content"`
	ReplyMarkup         *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	URL                 string                      `json:"url,omitempty"`
	HideURL             bool                        `json:"hide_url,omitempty"`
	Description         string                      `json:"description,omitempty"`
	ThumbURL            string                      `json:"thumb_url,omitempty"`
}

func (InlineQueryResultArticle) ResultType() string { return "article" }

func (r InlineQueryResultArticle) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultArticle
	return withType(r.ResultType(), plain(r))
}

type InlineQueryResultPhoto struct {
	ID                  string                      `json:"id"`
	PhotoURL            string                      `json:"photo_url"`
	ThumbURL            string                      `json:"thumb_url"`
	PhotoWidth          int                         `json:"photo_width,omitempty"`
	PhotoHeight         int                         `json:"photo_height,omitempty"`
	Title               string                      `json:"title,omitempty"`
	Description         string                      `json:"description,omitempty"`
	Caption             string                      `json:"caption,omitempty"`
	ParseMode           ParseMode                   `json:"parse_mode,omitempty"`
	ReplyMarkup         *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent         `json:"input_message_content,omitempty"`
}

func (InlineQueryResultPhoto) ResultType() string { return "photo" }

func (r InlineQueryResultPhoto) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultPhoto
	return withType(r.ResultType(), plain(r))
}

type InlineQueryResultGif struct {
	ID                  string                      `json:"id"`
	GifURL              string                      `json:"gif_url"`
	GifWidth            int                         `json:"gif_width,omitempty"`
	GifHeight           int                         `json:"gif_height,omitempty"`
	GifDuration         int                         `json:"gif_duration,omitempty"`
	ThumbURL            string                      `json:"thumb_url"`
	Title               string                      `json:"title,omitempty"`
	Caption             string                      `json:"caption,omitempty"`
	ParseMode           ParseMode                   `json:"parse_mode,omitempty"`
	ReplyMarkup         *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent         `json:"input_message_content,omitempty"`
}

func (InlineQueryResultGif) ResultType() string { return "gif" }

func (r InlineQueryResultGif) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultGif
	return withType(r.ResultType(), plain(r))
}

type InlineQueryResultVideo struct {
	ID                  string                      `json:"id"`
	VideoURL            string                      `json:"video_url"`
	MimeType            string                      `json:"mime_type"` // text/html or video/mp4
	ThumbURL            string                      `json:"thumb_url"`
	Title               string                      `json:"title"`
	Caption             string                      `json:"caption,omitempty"`
	ParseMode           ParseMode                   `json:"parse_mode,omitempty"`
	VideoWidth          int                         `json:"video_width,omitempty"`
	VideoHeight         int                         `json:"video_height,omitempty"`
	VideoDuration       int                         `json:"video_duration,omitempty"`
	Description         string                      `json:"description,omitempty"`
	ReplyMarkup         *types.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	InputMessageContent InputMessageContent         `json:"input_message_content,omitempty"`
}

func (InlineQueryResultVideo) ResultType() string { return "video" }

func (r InlineQueryResultVideo) MarshalJSON() ([]byte, error) {
	type plain InlineQueryResultVideo
	return withType(r.ResultType(), plain(r))
}
