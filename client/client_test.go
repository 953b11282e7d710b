package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mini-botapi/codec"
	"mini-botapi/config"
	"mini-botapi/message"
	"mini-botapi/methods"
	"mini-botapi/middleware"
	"mini-botapi/transport"
)

const testToken = "123456:ABC-DEF"

// 记录服务端收到的请求
type recorded struct {
	method      string
	path        string
	contentType string
	body        []byte
}

type fakeAPI struct {
	mu    sync.Mutex
	reqs  []recorded
	hits  atomic.Int32
	reply func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.reqs = append(f.reqs, recorded{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body})
	f.mu.Unlock()
	f.reply(w, r)
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func respond(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, reply func(w http.ResponseWriter, r *http.Request), opts ...Option) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{reply: reply}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient(testToken, append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, api
}

func TestNewClientRejectsBadInput(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expect ErrEmptyToken, got %v", err)
	}
	if _, err := NewClient("12/34"); err == nil {
		t.Fatal("expect error for a token with a slash")
	}
	if _, err := NewClient(testToken, WithBaseURL("ftp://example.com")); err == nil {
		t.Fatal("expect error for a non-http base url")
	}
}

func TestSendGetMe(t *testing.T) {
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"mini","username":"mini_bot"}}`))

	me, err := Send(context.Background(), c, methods.GetMe{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if me.ID != 42 || !me.IsBot || me.Username != "mini_bot" {
		t.Fatalf("got %+v", me)
	}

	got := api.last()
	if got.method != http.MethodGet || got.path != "/bot"+testToken+"/getMe" {
		t.Fatalf("got %s %s", got.method, got.path)
	}
	if len(got.body) != 0 || got.contentType != "" {
		t.Fatalf("GET without parameters should have no body, got %q (%s)", got.body, got.contentType)
	}
}

func TestSendMessageJSON(t *testing.T) {
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":{"message_id":5,"date":1,"chat":{"id":7,"type":"private"},"text":"hi"}}`))

	msg, err := Send(context.Background(), c, methods.SendMessage{ChatID: methods.ChatByID(7), Text: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.MessageID != 5 || msg.Chat.ID != 7 || msg.Text != "hi" {
		t.Fatalf("got %+v", msg)
	}

	got := api.last()
	if got.method != http.MethodPost || got.contentType != "application/json" {
		t.Fatalf("got %s %s", got.method, got.contentType)
	}
	if string(got.body) != `{"chat_id":7,"text":"hi"}` {
		t.Fatalf("got body %s", got.body)
	}
}

func TestSendPhotoMultipart(t *testing.T) {
	photo := []byte("\xff\xd8\xff\xe0 not really a jpeg \x00\x01")
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":7,"type":"private"}}}`))

	_, err := Send(context.Background(), c, methods.SendPhoto{
		ChatID:  methods.ChatByID(7),
		Photo:   message.FileUpload("cat.jpg", photo),
		Caption: "look",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := api.last()
	mediaType, params, err := mime.ParseMediaType(got.contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("got content type %q: %v", got.contentType, err)
	}
	r := multipart.NewReader(strings.NewReader(string(got.body)), params["boundary"])
	var names []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(p)
		names = append(names, p.FormName())
		switch p.FormName() {
		case "chat_id":
			if string(data) != "7" {
				t.Fatalf("chat_id = %q", data)
			}
		case "caption":
			if string(data) != "look" {
				t.Fatalf("caption = %q", data)
			}
		case "photo":
			if p.FileName() != "cat.jpg" || p.Header.Get("Content-Type") != "image/jpeg" {
				t.Fatalf("unexpected file header %v", p.Header)
			}
			if string(data) != string(photo) {
				t.Fatal("file bytes changed on the wire")
			}
		}
	}
	if strings.Join(names, ",") != "chat_id,photo,caption" {
		t.Fatalf("got parts %v", names)
	}
}

func TestAPIError(t *testing.T) {
	c, _ := newTestClient(t, respond(400, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))

	_, err := Send(context.Background(), c, methods.SendMessage{ChatID: methods.ChatByID(1), Text: "x"})
	var apiErr *message.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expect *message.APIError, got %T %v", err, err)
	}
	if apiErr.Code != 400 || apiErr.Description != "Bad Request: chat not found" {
		t.Fatalf("got %+v", apiErr)
	}
}

func TestFloodControlIsReturnedNotRetried(t *testing.T) {
	c, api := newTestClient(t, respond(429, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))

	_, err := Send(context.Background(), c, methods.SendChatAction{ChatID: methods.ChatByID(1), Action: methods.ActionTyping})
	var apiErr *message.APIError
	if !errors.As(err, &apiErr) || apiErr.RetryAfter().Seconds() != 3 {
		t.Fatalf("expect retry_after 3s, got %v", err)
	}
	if api.hits.Load() != 1 {
		t.Fatalf("expect exactly one request, got %d", api.hits.Load())
	}
}

func TestMalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway for "+r.URL.Path+"</html>")
	})

	_, err := Send(context.Background(), c, methods.GetMe{})
	var malformed *message.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expect *message.MalformedResponseError, got %T %v", err, err)
	}
	if malformed.StatusCode != http.StatusBadGateway {
		t.Fatalf("got status %d", malformed.StatusCode)
	}
	if !strings.HasPrefix(string(malformed.Body), "<html>") {
		t.Fatalf("expect raw body kept, got %q", malformed.Body)
	}
	if strings.Contains(string(malformed.Body), testToken) || strings.Contains(err.Error(), testToken) {
		t.Fatal("token leaked through a malformed response")
	}
}

func TestResultOfWrongType(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`))

	if _, err := Send(context.Background(), c, methods.GetMe{}); err == nil {
		t.Fatal("expect a malformed response error for a bool user")
	} else if !errors.As(err, new(*message.MalformedResponseError)) {
		t.Fatalf("got %T %v", err, err)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(testToken, WithBaseURL(base))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = Send(context.Background(), c, methods.GetMe{})
	var terr *transport.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expect *transport.TransportError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), testToken) {
		t.Fatalf("token leaked: %v", err)
	}
}

func TestEncodingErrorSendsNothing(t *testing.T) {
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":true}`))

	_, err := Send(context.Background(), c, methods.SendMessage{ChatID: methods.ChatByID(1), Text: "bad \xff utf8"})
	var encErr *codec.EncodingError
	if !errors.As(err, &encErr) || encErr.Field != "text" {
		t.Fatalf("expect encoding error on text, got %v", err)
	}
	_, err = Send(context.Background(), c, methods.AnswerInlineQuery{
		InlineQueryID: "q",
		Results: []methods.InlineQueryResult{methods.InlineQueryResultArticle{
			ID:                  "1",
			Title:               "here",
			InputMessageContent: methods.InputLocationMessageContent{Latitude: math.NaN()},
		}},
	})
	if !errors.Is(err, codec.ErrNonFinite) {
		t.Fatalf("expect non-finite error, got %v", err)
	}
	if api.hits.Load() != 0 {
		t.Fatalf("nothing should be sent, got %d requests", api.hits.Load())
	}
}

func TestEmptyTokenPrefix(t *testing.T) {
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":true}`), WithTokenPrefix(""))

	if _, err := Send(context.Background(), c, methods.DeleteWebhook{}); err != nil {
		t.Fatal(err)
	}
	if got := api.last().path; got != "/"+testToken+"/deleteWebhook" {
		t.Fatalf("got path %s", got)
	}
}

func TestCallReply(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`))

	var ok bool
	if err := c.Call(context.Background(), methods.DeleteWebhook{}, ok); !errors.Is(err, ErrBadReply) {
		t.Fatalf("expect ErrBadReply, got %v", err)
	}
	if err := c.Call(context.Background(), methods.DeleteWebhook{}, &ok); err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
	if err := c.Call(context.Background(), methods.DeleteWebhook{}, nil); err != nil {
		t.Fatalf("nil reply should only check the envelope: %v", err)
	}
}

func TestEditReturnsMessageOrTrue(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`))

	res, err := Send(context.Background(), c, methods.EditMessageText{MessageRef: methods.Inline("im1"), Text: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Message != nil {
		t.Fatalf("got %+v", res)
	}
}

func TestDownloadFile(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/file/bot"+testToken+"/photos/a.jpg" {
			io.WriteString(w, "jpeg bytes")
			return
		}
		http.NotFound(w, r)
	})

	data, err := c.DownloadFile(context.Background(), "photos/a.jpg")
	if err != nil || string(data) != "jpeg bytes" {
		t.Fatalf("got %q, %v", data, err)
	}
	if api.last().method != http.MethodGet {
		t.Fatalf("got %s", api.last().method)
	}

	_, err = c.DownloadFile(context.Background(), "photos/missing.jpg")
	var apiErr *message.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		t.Fatalf("expect 404 api error, got %v", err)
	}
}

func TestMiddlewareIsOptIn(t *testing.T) {
	var seen []string
	record := func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, ex *middleware.Exchange) (*transport.Response, error) {
			seen = append(seen, ex.Endpoint)
			return next(ctx, ex)
		}
	}
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`), WithMiddleware(record))

	if _, err := Send(context.Background(), c, methods.DeleteMessage{ChatID: methods.ChatByID(1), MessageID: 2}); err != nil {
		t.Fatal(err)
	}
	if strings.Join(seen, ",") != "deleteMessage" {
		t.Fatalf("got %v", seen)
	}
}

func TestEmptyTransportResultWithMiddleware(t *testing.T) {
	empty := transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		return nil, nil
	})
	c, err := NewClient(testToken,
		WithTransport(empty),
		WithMiddleware(
			middleware.Metrics(),
			middleware.Logging(zap.NewNop()),
			middleware.Retry(1, 0, nil),
		))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = Send(context.Background(), c, methods.GetMe{})
	var terr *transport.TransportError
	if !errors.As(err, &terr) || !errors.Is(err, transport.ErrNoResponse) {
		t.Fatalf("expect TransportError wrapping ErrNoResponse, got %v", err)
	}
}

func TestMiddlewareErrorTextKept(t *testing.T) {
	refused := transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		return nil, &transport.TransportError{Op: "execute request", Err: errors.New("Post " + req.URL + ": connection refused")}
	})
	annotate := func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, ex *middleware.Exchange) (*transport.Response, error) {
			resp, err := next(ctx, ex)
			if err != nil {
				return nil, fmt.Errorf("circuit open: %w", err)
			}
			return resp, nil
		}
	}
	c, err := NewClient(testToken, WithTransport(refused), WithMiddleware(annotate))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = Send(context.Background(), c, methods.GetMe{})
	if err == nil || !strings.Contains(err.Error(), "circuit open") {
		t.Fatalf("expect middleware text kept, got %v", err)
	}
	if strings.Contains(err.Error(), testToken) {
		t.Fatalf("token leaked: %v", err)
	}
	var terr *transport.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expect TransportError, got %T", err)
	}
}

func TestLogsNeverContainToken(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`), WithLogger(zap.New(core)))

	Send(context.Background(), c, methods.DeleteWebhook{})
	if logs.Len() == 0 {
		t.Fatal("expect a debug entry per call")
	}
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, testToken) {
			t.Fatal("token in log message")
		}
		for k, v := range entry.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, testToken) {
				t.Fatalf("token in log field %s", k)
			}
		}
	}
}

func TestConcurrentSend(t *testing.T) {
	c, api := newTestClient(t, respond(200, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"b"}}`))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Send(context.Background(), c, methods.GetMe{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if api.hits.Load() != 20 {
		t.Fatalf("expect 20 requests, got %d", api.hits.Load())
	}
}

func TestCancelledContext(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"ok":true,"result":true}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Send(ctx, c, methods.DeleteWebhook{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expect context.Canceled, got %v", err)
	}
}

func TestNewFromConfigStaticServers(t *testing.T) {
	api := &fakeAPI{reply: respond(200, `{"ok":true,"result":{"id":9,"is_bot":true,"first_name":"local"}}`)}
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := config.Default()
	cfg.Token = testToken
	cfg.Discovery.Servers = []string{srv.URL}

	c, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	defer c.Close()

	me, err := Send(context.Background(), c, methods.GetMe{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if me.ID != 9 || api.last().path != "/bot"+testToken+"/getMe" {
		t.Fatalf("got %+v via %s", me, api.last().path)
	}
}

func TestNewFromConfigNeedsToken(t *testing.T) {
	if _, err := NewFromConfig(config.Default()); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expect ErrEmptyToken, got %v", err)
	}
}

func TestParseServer(t *testing.T) {
	inst, err := parseServer("10.0.0.1:8081")
	if err != nil || inst.Addr != "10.0.0.1:8081" || inst.URLScheme() != "http" {
		t.Fatalf("got %+v, %v", inst, err)
	}
	inst, err = parseServer("https://bots.internal:443")
	if err != nil || inst.Addr != "bots.internal:443" || inst.URLScheme() != "https" {
		t.Fatalf("got %+v, %v", inst, err)
	}
	if _, err := parseServer("http://"); err == nil {
		t.Fatal("expect error for a server without host")
	}
}
