package server

import (
	"fmt"
	"hash/fnv"
	"path"
	"strings"
	"sync"
	"time"

	"mini-botapi/message"
	"mini-botapi/methods"
	"mini-botapi/types"
)

// Bot is an in-memory implementation of the core Bot API methods. It keeps
// sent messages, uploaded files and a queue of updates for getUpdates.
type Bot struct {
	srv *Server
	me  types.User

	mu       sync.Mutex
	nextMsg    int64
	nextFile   int
	nextUpdate int64
	messages   map[int64]*types.Message // by message id
	files      map[string]storedFile    // by file id
	updates    []types.Update
	failures   []error
}

type storedFile struct {
	file types.File
	data []byte
}

// NewBot creates the service and registers it with srv.
func NewBot(srv *Server, me types.User) (*Bot, error) {
	b := &Bot{
		srv:      srv,
		me:       me,
		messages: make(map[int64]*types.Message),
		files:    make(map[string]storedFile),
	}
	if err := srv.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// PushUpdate queues an update for getUpdates, numbering it when UpdateID is zero.
func (b *Bot) PushUpdate(u types.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.UpdateID == 0 {
		u.UpdateID = b.nextUpdate + 1
	}
	b.nextUpdate = max(b.nextUpdate, u.UpdateID)
	b.updates = append(b.updates, u)
}

// FailNext makes the next calls fail with errs, in order.
func (b *Bot) FailNext(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, errs...)
}

// Sent returns a copy of every message the bot sent, in order.
func (b *Bot) Sent() []types.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Message, 0, len(b.messages))
	for id := int64(1); id <= b.nextMsg; id++ {
		if m, ok := b.messages[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

// takeFailure pops a queued failure. Callers hold b.mu.
func (b *Bot) takeFailure() error {
	if len(b.failures) == 0 {
		return nil
	}
	err := b.failures[0]
	b.failures = b.failures[1:]
	return err
}

func chatOf(id methods.ChatID) types.Chat {
	if id.Username != "" {
		h := fnv.New32a()
		h.Write([]byte(id.Username))
		return types.Chat{ID: -1000000000000 - int64(h.Sum32()), Type: types.ChatTypeChannel, Username: strings.TrimPrefix(id.Username, "@")}
	}
	if id.ID < 0 {
		return types.Chat{ID: id.ID, Type: types.ChatTypeSupergroup}
	}
	return types.Chat{ID: id.ID, Type: types.ChatTypePrivate}
}

// newMessage stores a message from the bot. Callers hold b.mu.
func (b *Bot) newMessage(chat methods.ChatID, fill func(m *types.Message)) *types.Message {
	b.nextMsg++
	me := b.me
	m := &types.Message{
		MessageID: b.nextMsg,
		From:      &me,
		Date:      time.Now().Unix(),
		Chat:      chatOf(chat),
	}
	fill(m)
	b.messages[m.MessageID] = m
	return m
}

// storeUpload keeps an upload and returns its metadata. Callers hold b.mu.
func (b *Bot) storeUpload(kind string, f File) types.File {
	b.nextFile++
	id := fmt.Sprintf("%s-%d", kind, b.nextFile)
	ext := path.Ext(f.FileName)
	file := types.File{
		FileID:       id,
		FileUniqueID: fmt.Sprintf("u%d", b.nextFile),
		FileSize:     int64(len(f.Data)),
		FilePath:     fmt.Sprintf("%ss/file_%d%s", kind, b.nextFile, ext),
	}
	b.files[id] = storedFile{file: file, data: f.Data}
	return file
}

// resolveFile turns a file parameter into stored metadata: a file part of
// the request, an attach:// reference to one, or a known file id. URLs are
// accepted without content.
func (b *Bot) resolveFile(kind, field string, in message.InputFile, files map[string]File) (types.File, error) {
	if part, ok := files[field]; ok {
		return b.storeUpload(kind, part), nil
	}
	if in.IsZero() {
		return types.File{}, BadRequest("there is no " + field + " in the request")
	}
	ref := in.Ref()
	if in.IsAttach() {
		part, ok := files[ref]
		if !ok {
			return types.File{}, BadRequest("file " + ref + " not found in the request")
		}
		return b.storeUpload(kind, part), nil
	}
	if stored, ok := b.files[ref]; ok {
		return stored.file, nil
	}
	if in.IsURL() {
		b.nextFile++
		id := fmt.Sprintf("%s-%d", kind, b.nextFile)
		f := types.File{FileID: id, FileUniqueID: fmt.Sprintf("u%d", b.nextFile)}
		b.files[id] = storedFile{file: f}
		return f, nil
	}
	return types.File{}, BadRequest("wrong file identifier/HTTP URL specified")
}

func (b *Bot) GetMe(args *struct{}, reply *types.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	*reply = b.me
	return nil
}

type GetUpdatesArgs struct {
	Offset  int64 `json:"offset"`
	Limit   int   `json:"limit"`
	Timeout int   `json:"timeout"`
}

// GetUpdates returns queued updates from offset on and forgets older ones.
// It never waits.
func (b *Bot) GetUpdates(args *GetUpdatesArgs, reply *[]types.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}

	kept := b.updates[:0]
	for _, u := range b.updates {
		if u.UpdateID >= args.Offset {
			kept = append(kept, u)
		}
	}
	b.updates = kept

	limit := args.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	out := make([]types.Update, 0, min(limit, len(kept)))
	for _, u := range kept {
		if len(out) == limit {
			break
		}
		out = append(out, u)
	}
	*reply = out
	return nil
}

type SendMessageArgs struct {
	ChatID      methods.ChatID              `json:"chat_id"`
	Text        string                      `json:"text"`
	ParseMode   string                      `json:"parse_mode"`
	Entities    []types.MessageEntity       `json:"entities"`
	ReplyMarkup *types.InlineKeyboardMarkup `json:"reply_markup"`
}

func (b *Bot) SendMessage(args *SendMessageArgs, reply *types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if strings.TrimSpace(args.Text) == "" {
		return BadRequest("message text is empty")
	}
	m := b.newMessage(args.ChatID, func(m *types.Message) {
		m.Text = args.Text
		m.Entities = args.Entities
		m.ReplyMarkup = args.ReplyMarkup
	})
	*reply = *m
	return nil
}

type SendChatActionArgs struct {
	ChatID methods.ChatID `json:"chat_id"`
	Action string         `json:"action"`
}

func (b *Bot) SendChatAction(args *SendChatActionArgs, reply *bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if args.Action == "" {
		return BadRequest("wrong parameter action in request")
	}
	*reply = true
	return nil
}

type SendPhotoArgs struct {
	ChatID  methods.ChatID    `json:"chat_id"`
	Photo   message.InputFile `json:"photo"`
	Caption string            `json:"caption"`
	Files   map[string]File   `json:"-"`
}

func (b *Bot) SendPhoto(args *SendPhotoArgs, reply *types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	f, err := b.resolveFile("photo", "photo", args.Photo, args.Files)
	if err != nil {
		return err
	}
	m := b.newMessage(args.ChatID, func(m *types.Message) {
		m.Photo = []types.PhotoSize{{FileID: f.FileID, FileUniqueID: f.FileUniqueID, FileSize: f.FileSize}}
		m.Caption = args.Caption
	})
	*reply = *m
	return nil
}

type SendDocumentArgs struct {
	ChatID   methods.ChatID    `json:"chat_id"`
	Document message.InputFile `json:"document"`
	Caption  string            `json:"caption"`
	Files    map[string]File   `json:"-"`
}

func (b *Bot) SendDocument(args *SendDocumentArgs, reply *types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	f, err := b.resolveFile("document", "document", args.Document, args.Files)
	if err != nil {
		return err
	}
	fileName := ""
	if part, ok := args.Files["document"]; ok {
		fileName = part.FileName
	}
	m := b.newMessage(args.ChatID, func(m *types.Message) {
		m.Document = &types.Document{FileID: f.FileID, FileUniqueID: f.FileUniqueID, FileName: fileName, FileSize: f.FileSize}
		m.Caption = args.Caption
	})
	*reply = *m
	return nil
}

type SendMediaGroupArgs struct {
	ChatID methods.ChatID       `json:"chat_id"`
	Media  []methods.InputMedia `json:"media"`
	Files  map[string]File      `json:"-"`
}

// SendMediaGroup answers with one message per item, sharing a media group id.
func (b *Bot) SendMediaGroup(args *SendMediaGroupArgs, reply *[]types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if len(args.Media) < 2 || len(args.Media) > 10 {
		return BadRequest("media group must include 2-10 items")
	}

	group := fmt.Sprintf("group-%d", b.nextMsg+1)
	out := make([]types.Message, 0, len(args.Media))
	for i, item := range args.Media {
		f, err := b.resolveFile(string(item.Type), fmt.Sprintf("media[%d]", i), item.Media, args.Files)
		if err != nil {
			return err
		}
		m := b.newMessage(args.ChatID, func(m *types.Message) {
			m.MediaGroupID = group
			m.Caption = item.Caption
			switch item.Type {
			case methods.MediaVideoType:
				m.Video = &types.Video{FileID: f.FileID, FileUniqueID: f.FileUniqueID, FileSize: f.FileSize}
			default:
				m.Photo = []types.PhotoSize{{FileID: f.FileID, FileUniqueID: f.FileUniqueID, FileSize: f.FileSize}}
			}
		})
		out = append(out, *m)
	}
	*reply = out
	return nil
}

type GetFileArgs struct {
	FileID string `json:"file_id"`
}

// GetFile publishes the file for download and returns its path.
func (b *Bot) GetFile(args *GetFileArgs, reply *types.File) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	stored, ok := b.files[args.FileID]
	if !ok || stored.file.FilePath == "" {
		return BadRequest("invalid file_id")
	}
	b.srv.PutFile(stored.file.FilePath, stored.data)
	*reply = stored.file
	return nil
}

type EditMessageTextArgs struct {
	ChatID          *methods.ChatID             `json:"chat_id"`
	MessageID       int64                       `json:"message_id"`
	InlineMessageID string                      `json:"inline_message_id"`
	Text            string                      `json:"text"`
	ReplyMarkup     *types.InlineKeyboardMarkup `json:"reply_markup"`
}

func (b *Bot) EditMessageText(args *EditMessageTextArgs, reply *types.MessageOrBool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if args.InlineMessageID != "" {
		*reply = types.MessageOrBool{OK: true}
		return nil
	}
	m, ok := b.messages[args.MessageID]
	if !ok || args.ChatID == nil || chatOf(*args.ChatID).ID != m.Chat.ID {
		return BadRequest("message to edit not found")
	}
	if m.Text == args.Text && args.ReplyMarkup == nil {
		return BadRequest("message is not modified")
	}
	m.Text = args.Text
	m.EditDate = time.Now().Unix()
	if args.ReplyMarkup != nil {
		m.ReplyMarkup = args.ReplyMarkup
	}
	*reply = types.MessageOrBool{Message: m, OK: true}
	return nil
}

type DeleteMessageArgs struct {
	ChatID    methods.ChatID `json:"chat_id"`
	MessageID int64          `json:"message_id"`
}

func (b *Bot) DeleteMessage(args *DeleteMessageArgs, reply *bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	m, ok := b.messages[args.MessageID]
	if !ok || m.Chat.ID != chatOf(args.ChatID).ID {
		return BadRequest("message to delete not found")
	}
	delete(b.messages, args.MessageID)
	*reply = true
	return nil
}

type AnswerCallbackQueryArgs struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text"`
}

func (b *Bot) AnswerCallbackQuery(args *AnswerCallbackQueryArgs, reply *bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if args.CallbackQueryID == "" {
		return BadRequest("query is too old and response timeout expired or query ID is invalid")
	}
	*reply = true
	return nil
}

type DeleteWebhookArgs struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

func (b *Bot) DeleteWebhook(args *DeleteWebhookArgs, reply *bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if args.DropPendingUpdates {
		b.updates = nil
	}
	*reply = true
	return nil
}
