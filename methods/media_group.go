package methods

import (
	"encoding/json"
	"strconv"

	"mini-botapi/message"
	"mini-botapi/types"
)

type MediaType string

const (
	MediaPhotoType MediaType = "photo"
	MediaVideoType MediaType = "video"
)

// InputMedia is one item of a media group.
type InputMedia struct {
	Type              MediaType             `json:"type"`
	Media             message.InputFile     `json:"media"`
	Caption           string                `json:"caption,omitempty"`
	ParseMode         ParseMode             `json:"parse_mode,omitempty"`
	CaptionEntities   []types.MessageEntity `json:"caption_entities,omitempty"`
	Width             int                   `json:"width,omitempty"`
	Height            int                   `json:"height,omitempty"`
	Duration          int                   `json:"duration,omitempty"`
	SupportsStreaming bool                  `json:"supports_streaming,omitempty"`
}

func MediaPhoto(file message.InputFile) InputMedia {
	return InputMedia{Type: MediaPhotoType, Media: file}
}

func MediaVideo(file message.InputFile) InputMedia {
	return InputMedia{Type: MediaVideoType, Media: file}
}

// SendMediaGroup sends two to ten photos or videos as an album.
//
// Uploaded items are sent as parts named media0, media1, ... by position and
// referenced from the media array as attach://mediaN.
type SendMediaGroup struct {
	message.Post[[]types.Message]
	ChatID              ChatID       `json:"chat_id"`
	Media               []InputMedia `json:"media"`
	DisableNotification bool         `json:"disable_notification,omitempty"`
	ReplyToMessageID    int64        `json:"reply_to_message_id,omitempty"`
}

func (SendMediaGroup) Endpoint() string { return "sendMediaGroup" }

func mediaPartName(i int) string { return "media" + strconv.Itoa(i) }

// attached returns the media array with every upload replaced by its
// attach:// reference.
func (r SendMediaGroup) attached() []InputMedia {
	out := make([]InputMedia, len(r.Media))
	for i, m := range r.Media {
		if m.Media.NeedsUpload() {
			m.Media = message.FileAttach(mediaPartName(i))
		}
		out[i] = m
	}
	return out
}

func (r SendMediaGroup) MarshalJSON() ([]byte, error) {
	type plain SendMediaGroup
	p := plain(r)
	p.Media = r.attached()
	return json.Marshal(p)
}

func (r SendMediaGroup) Files() []message.Attachment {
	var files []message.Attachment
	for i, m := range r.Media {
		files = append(files, m.Media.Part(mediaPartName(i))...)
	}
	return files
}
