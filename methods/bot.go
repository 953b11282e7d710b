package methods

import (
	"mini-botapi/message"
	"mini-botapi/types"
)

// GetMe returns the bot's own user.
type GetMe struct {
	message.Get[types.User]
}

func (GetMe) Endpoint() string { return "getMe" }

// GetUpdates long-polls for incoming updates. Offset acknowledges every
// update with a smaller id.
type GetUpdates struct {
	message.Post[[]types.Update]
	Offset         int64        `json:"offset,omitempty"`
	Limit          int          `json:"limit,omitempty"`
	Timeout        int          `json:"timeout,omitempty"` // seconds
	AllowedUpdates []UpdateType `json:"allowed_updates,omitempty"`
}

func (GetUpdates) Endpoint() string { return "getUpdates" }

// SetWebhook switches the bot to webhook delivery. A self-signed
// certificate is uploaded when set.
type SetWebhook struct {
	message.Post[bool]
	URL                string             `json:"url"`
	Certificate        *message.InputFile `json:"certificate,omitempty"`
	IPAddress          string             `json:"ip_address,omitempty"`
	MaxConnections     int                `json:"max_connections,omitempty"`
	AllowedUpdates     []UpdateType       `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool               `json:"drop_pending_updates,omitempty"`
}

func (SetWebhook) Endpoint() string { return "setWebhook" }

type DeleteWebhook struct {
	message.Post[bool]
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

func (DeleteWebhook) Endpoint() string { return "deleteWebhook" }

type GetWebhookInfo struct {
	message.Get[types.WebhookInfo]
}

func (GetWebhookInfo) Endpoint() string { return "getWebhookInfo" }

type SetMyDefaultAdministratorRights struct {
	message.Post[bool]
	Rights      *types.ChatAdministratorRights `json:"rights,omitempty"`
	ForChannels bool                           `json:"for_channels,omitempty"`
}

func (SetMyDefaultAdministratorRights) Endpoint() string {
	return "setMyDefaultAdministratorRights"
}

type GetMyDefaultAdministratorRights struct {
	message.Post[types.ChatAdministratorRights]
	ForChannels bool `json:"for_channels,omitempty"`
}

func (GetMyDefaultAdministratorRights) Endpoint() string {
	return "getMyDefaultAdministratorRights"
}
