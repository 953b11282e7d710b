package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"time"

	"go.uber.org/zap"

	"mini-botapi/config"
	"mini-botapi/logger"
	"mini-botapi/registry"
	"mini-botapi/server"
	"mini-botapi/types"
)

// serve runs an in-memory API server, announced in etcd when the
// configuration names endpoints.
func serve(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", "127.0.0.1:8081", "listen address")
	advertise := fs.String("advertise", "", "address announced to the registry (defaults to the listen address)")
	botName := fs.String("name", "mini_bot", "username of the fake bot")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	log := logger.Named("botctl")
	srv := server.NewServer()
	srv.SetTokenPrefix(cfg.TokenPrefix)
	srv.SetServiceName(cfg.Discovery.Service)
	if cfg.Token != "" {
		srv.AllowToken(cfg.Token)
	}
	if _, err := server.NewBot(srv, types.User{ID: 1, IsBot: true, FirstName: "Mini", Username: *botName}); err != nil {
		return err
	}

	l, err := net.Listen("tcp", *listen)
	if err != nil {
		return err
	}
	addr := *advertise
	if addr == "" {
		addr = l.Addr().String()
	}

	var reg registry.Registry
	if len(cfg.Discovery.EtcdEndpoints) > 0 {
		etcd, err := registry.NewEtcdRegistry(cfg.Discovery.EtcdEndpoints, 5*time.Second)
		if err != nil {
			l.Close()
			return err
		}
		defer etcd.Close()
		reg = etcd
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l, addr, reg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down", zap.String("addr", addr))
	if err := srv.Shutdown(5 * time.Second); err != nil {
		return err
	}
	if err := <-done; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
