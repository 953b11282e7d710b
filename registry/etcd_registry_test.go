package registry

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// etcdEndpoints skips the test unless MINI_BOTAPI_ETCD names a running etcd.
func etcdEndpoints(t *testing.T) []string {
	t.Helper()
	v := os.Getenv("MINI_BOTAPI_ETCD")
	if v == "" {
		t.Skip("MINI_BOTAPI_ETCD not set")
	}
	return strings.Split(v, ",")
}

func TestRegisterAndDiscover(t *testing.T) {
	reg, err := NewEtcdRegistry(etcdEndpoints(t), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	ctx := context.Background()

	inst1 := ServiceInstance{Addr: "127.0.0.1:8081", Scheme: "http", Weight: 10, Version: "7.0"}
	inst2 := ServiceInstance{Addr: "127.0.0.1:8082", Scheme: "http", Weight: 5, Version: "7.0"}

	if err := reg.Register(ctx, "botapi-test", inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(ctx, "botapi-test", inst2, 10); err != nil {
		t.Fatal(err)
	}

	instances, err := reg.Discover(ctx, "botapi-test")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(instances))
	}

	if err := reg.Deregister(ctx, "botapi-test", inst1.Addr); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover(ctx, "botapi-test")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 {
		t.Fatalf("expect 1 instance after deregister, got %d", len(instances))
	}
	if instances[0].Addr != inst2.Addr {
		t.Fatalf("expect %s, got %s", inst2.Addr, instances[0].Addr)
	}

	reg.Deregister(ctx, "botapi-test", inst2.Addr)
}

func TestStaticRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := NewStaticRegistry("botapi",
		ServiceInstance{Addr: "b:8081", Weight: 1},
		ServiceInstance{Addr: "a:8081", Weight: 1},
	)
	instances, _ := reg.Discover(ctx, "botapi")
	if len(instances) != 2 || instances[0].Addr != "a:8081" {
		t.Fatalf("unexpected instances %+v", instances)
	}

	updates := reg.Watch(ctx, "botapi")
	reg.Register(ctx, "botapi", ServiceInstance{Addr: "c:8081"}, 0)
	reg.Deregister(ctx, "botapi", "a:8081")

	select {
	case got := <-updates:
		// only the latest list is kept
		if len(got) != 2 || got[0].Addr != "b:8081" || got[1].Addr != "c:8081" {
			t.Fatalf("unexpected update %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("expect an update")
	}

	cancel()
	if _, ok := <-updates; ok {
		t.Fatal("expect watch channel closed after cancel")
	}

	if (ServiceInstance{}).URLScheme() != "https" {
		t.Fatal("expect https by default")
	}
}
