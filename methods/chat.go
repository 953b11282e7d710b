package methods

import (
	"mini-botapi/message"
	"mini-botapi/types"
)

type GetChat struct {
	message.Post[types.Chat]
	ChatID ChatID `json:"chat_id"`
}

func (GetChat) Endpoint() string { return "getChat" }

type GetChatAdministrators struct {
	message.Post[[]types.ChatMember]
	ChatID ChatID `json:"chat_id"`
}

func (GetChatAdministrators) Endpoint() string { return "getChatAdministrators" }

type GetChatMember struct {
	message.Post[types.ChatMember]
	ChatID ChatID `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

func (GetChatMember) Endpoint() string { return "getChatMember" }
