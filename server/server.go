// Package server is a small in-process Bot API server for tests and local
// development.
//
// Handlers are plain methods registered by reflection, the way net/rpc does
// it; their names become endpoints:
//
//	POST /{prefix}{token}/sendMessage
//	  → codec.Decode (JSON or multipart) → (*Svc).SendMessage(args, reply)
//	  → message.Success(reply) or message.Failure(...)
//
// Uploaded file parts are handed to the handler through an args field named
// Files of type map[string]File.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mini-botapi/codec"
	"mini-botapi/logger"
	"mini-botapi/message"
	"mini-botapi/protocol"
	"mini-botapi/registry"
)

// DefaultServiceName is the registry service API servers announce under.
const DefaultServiceName = "botapi"

const maxBodyBytes = 50 << 20

// File is an uploaded part.
type File struct {
	FileName    string
	ContentType string
	Data        []byte
}

var filesType = reflect.TypeOf(map[string]File(nil))

type tokenKey struct{}

// Token returns the bot token a request was addressed with.
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

type endpoint struct {
	svc    *service
	method *methodType
}

type Server struct {
	prefix      string
	serviceName string
	logger      *zap.Logger

	mu        sync.RWMutex
	endpoints map[string]endpoint // "sendMessage" → handler
	tokens    map[string]bool     // empty accepts any token
	files     map[string][]byte   // file path → content, served under /file/

	httpServer    *http.Server
	shutdown      atomic.Bool
	registry      registry.Registry
	advertiseAddr string
	requests      atomic.Int64
}

func NewServer() *Server {
	return &Server{
		prefix:      protocol.DefaultTokenPrefix,
		serviceName: DefaultServiceName,
		logger:      logger.Named("server"),
		endpoints:   make(map[string]endpoint),
		tokens:      make(map[string]bool),
		files:       make(map[string][]byte),
	}
}

// SetTokenPrefix changes the path prefix before the token. Call before Serve.
func (svr *Server) SetTokenPrefix(prefix string) { svr.prefix = prefix }

// SetServiceName changes the name Serve registers under. Call before Serve.
func (svr *Server) SetServiceName(name string) { svr.serviceName = name }

func (svr *Server) SetLogger(l *zap.Logger) { svr.logger = l }

// AllowToken restricts the server to the given tokens. Until the first call
// every token is accepted.
func (svr *Server) AllowToken(tokens ...string) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	for _, t := range tokens {
		svr.tokens[t] = true
	}
}

// PutFile makes data downloadable under filePath.
func (svr *Server) PutFile(filePath string, data []byte) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.files[strings.TrimLeft(filePath, "/")] = data
}

// Register exposes the methods of rcvr as endpoints. A later registration
// replaces endpoints of the same name.
func (svr *Server) Register(rcvr any) error {
	svc, err := NewService(rcvr)
	if err != nil {
		return err
	}
	svr.mu.Lock()
	defer svr.mu.Unlock()
	for name, m := range svc.method {
		svr.endpoints[name] = endpoint{svc: svc, method: m}
	}
	return nil
}

// Requests counts the method calls served so far.
func (svr *Server) Requests() int64 { return svr.requests.Load() }

// Serve answers requests on l until Shutdown. With a registry the server
// announces advertiseAddr under its service name first.
func (svr *Server) Serve(l net.Listener, advertiseAddr string, reg registry.Registry) error {
	svr.httpServer = &http.Server{Handler: svr, ReadHeaderTimeout: 10 * time.Second}

	if reg != nil {
		svr.registry = reg
		svr.advertiseAddr = advertiseAddr
		inst := registry.ServiceInstance{Addr: advertiseAddr, Scheme: "http", Weight: 1}
		// TTL 10s, KeepAlive renews it
		if err := reg.Register(context.Background(), svr.serviceName, inst, 10); err != nil {
			return fmt.Errorf("register %s: %w", advertiseAddr, err)
		}
	}

	svr.logger.Info("serving bot api", zap.String("addr", l.Addr().String()))
	err := svr.httpServer.Serve(l)
	if svr.shutdown.Load() && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown deregisters the server first so clients stop picking it, then
// waits up to timeout for in-flight requests.
func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if svr.registry != nil {
		if err := svr.registry.Deregister(ctx, svr.serviceName, svr.advertiseAddr); err != nil {
			svr.logger.Warn("deregister failed", zap.Error(err))
		}
	}

	svr.shutdown.Store(true)
	if svr.httpServer == nil {
		return nil
	}
	if err := svr.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("timeout waiting for ongoing requests to finish: %w", err)
	}
	return nil
}

func (svr *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rest, ok := strings.CutPrefix(r.URL.Path, "/"+protocol.FileSegment+"/"); ok {
		svr.serveFile(w, r, rest)
		return
	}

	token, name, ok := protocol.SplitMethodPath(r.URL.Path, svr.prefix)
	if !ok {
		svr.writeError(w, NotFound("unknown address"))
		return
	}
	if !svr.allowed(token) {
		svr.writeError(w, errUnauthorized)
		return
	}

	svr.mu.RLock()
	ep, found := svr.endpoints[name]
	svr.mu.RUnlock()
	if !found {
		svr.writeError(w, NotFound("method not found"))
		return
	}
	svr.requests.Add(1)

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		svr.writeError(w, BadRequest("read body: "+err.Error()))
		return
	}

	argv := reflect.New(ep.method.ArgType)
	if len(data) > 0 {
		parts, err := codec.Decode(&codec.Body{ContentType: r.Header.Get("Content-Type"), Data: data}, argv.Interface())
		if err != nil {
			svr.writeError(w, BadRequest(err.Error()))
			return
		}
		setFiles(argv.Elem(), parts)
	}
	replyv := reflect.New(ep.method.ReplyType)

	ctx := context.WithValue(r.Context(), tokenKey{}, token)
	if err := ep.svc.Call(ctx, ep.method, argv, replyv); err != nil {
		svr.logger.Debug("handler failed", zap.String("endpoint", name), zap.Error(err))
		svr.writeError(w, err)
		return
	}

	body, err := message.Success(replyv.Elem().Interface())
	if err != nil {
		svr.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (svr *Server) allowed(token string) bool {
	svr.mu.RLock()
	defer svr.mu.RUnlock()
	return len(svr.tokens) == 0 || svr.tokens[token]
}

// serveFile answers GET /file/{prefix}{token}/{path}.
func (svr *Server) serveFile(w http.ResponseWriter, r *http.Request, rest string) {
	credential, filePath, ok := strings.Cut(rest, "/")
	token, hasPrefix := strings.CutPrefix(credential, svr.prefix)
	if !ok || !hasPrefix || !svr.allowed(token) {
		http.NotFound(w, r)
		return
	}
	svr.mu.RLock()
	data, found := svr.files[filePath]
	svr.mu.RUnlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", protocol.MediaTypeOctetStream)
	w.Write(data)
}

func (svr *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Code: http.StatusInternalServerError, Description: "Internal Server Error: " + err.Error()}
	}
	body, merr := message.Failure(apiErr.Code, apiErr.Description, apiErr.parameters())
	if merr != nil {
		http.Error(w, merr.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, apiErr.Code, body)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", protocol.MediaTypeJSON)
	w.WriteHeader(status)
	w.Write(body)
}

// setFiles hands the file parts to an args field `Files map[string]File`.
func setFiles(args reflect.Value, parts []codec.Part) {
	if args.Kind() != reflect.Struct || len(parts) == 0 {
		return
	}
	f := args.FieldByName("Files")
	if !f.IsValid() || !f.CanSet() || f.Type() != filesType {
		return
	}
	files := make(map[string]File, len(parts))
	for _, p := range parts {
		files[p.Name] = File{FileName: p.FileName, ContentType: p.ContentType, Data: p.Data}
	}
	f.Set(reflect.ValueOf(files))
}
