package test

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"mini-botapi/registry"
	"mini-botapi/server"
	"mini-botapi/types"
)

const testToken = "123456:INTEGRATION"

var botUser = types.User{ID: 1, IsBot: true, FirstName: "Mini", Username: "mini_bot"}

type fakeAPI struct {
	srv  *server.Server
	bot  *server.Bot
	addr string
}

// startAPI 起一个内存版 Bot API，reg 不为 nil 时注册进去
func startAPI(t testing.TB, reg registry.Registry) *fakeAPI {
	t.Helper()
	srv := server.NewServer()
	bot, err := server.NewBot(srv, botUser)
	if err != nil {
		t.Fatal(err)
	}
	api := startAPIWith(t, srv, reg)
	api.bot = bot
	return api
}

// startAPIWith 在随机端口上跑 srv，测试结束时关闭
func startAPIWith(t testing.TB, srv *server.Server, reg registry.Registry) *fakeAPI {
	t.Helper()
	srv.SetLogger(zap.NewNop())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l, addr, reg) }()
	if reg != nil {
		waitRegistered(t, reg, addr)
	}

	t.Cleanup(func() {
		srv.Shutdown(3 * time.Second)
		<-done
	})
	return &fakeAPI{srv: srv, addr: addr}
}

// waitRegistered 等 Serve 把 addr 注册进 reg
func waitRegistered(t testing.TB, reg registry.Registry, addr string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		instances, _ := reg.Discover(context.Background(), server.DefaultServiceName)
		for _, inst := range instances {
			if inst.Addr == addr {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s was not registered", addr)
}

func (f *fakeAPI) baseURL() string { return "http://" + f.addr }
