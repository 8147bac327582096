package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/storage/kv"
)

func newMemoryKV(t *testing.T) *kv.Client {
	t.Helper()

	client, err := kv.New(context.Background(), &configs.KVConfig{Type: string(kv.KVTypeMemory)})
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// TestMemoryKVSetGet 测试基本读写.
func TestMemoryKVSetGet(t *testing.T) {
	client := newMemoryKV(t)
	ctx := context.Background()

	if err := client.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, err := client.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(data) != "v1" {
		t.Errorf("value = %q, want v1", data)
	}

	exists, err := client.Exists(ctx, "k1")
	if err != nil || !exists {
		t.Errorf("expected key to exist, got exists=%v err=%v", exists, err)
	}
}

// TestMemoryKVMissing 测试缺失键返回 ErrKeyNotFound.
func TestMemoryKVMissing(t *testing.T) {
	client := newMemoryKV(t)

	if _, err := client.Get(context.Background(), "nope"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

// TestMemoryKVTTL 测试 TTL 过期后键不可见.
func TestMemoryKVTTL(t *testing.T) {
	client := newMemoryKV(t)
	ctx := context.Background()

	if err := client.Set(ctx, "ttl-key", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if _, err := client.Get(ctx, "ttl-key"); err != nil {
		t.Fatalf("get before expiry failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := client.Get(ctx, "ttl-key"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after expiry, got %v", err)
	}
}

// TestMemoryKVDelete 测试删除.
func TestMemoryKVDelete(t *testing.T) {
	client := newMemoryKV(t)
	ctx := context.Background()

	if err := client.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := client.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err := client.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}

	if exists {
		t.Error("expected key to be gone after delete")
	}
}
