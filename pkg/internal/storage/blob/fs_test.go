package blob_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/storage/blob"
)

func newFSStore(t *testing.T) blob.Store {
	t.Helper()

	store, err := blob.NewFSStore(context.Background(), &configs.StorageConfig{
		Backend: configs.StorageFS,
		Root:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("create fs store: %v", err)
	}

	return store
}

// TestFSStorePutGet 测试写入与读取往返.
func TestFSStorePutGet(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	relPath := blob.RelPath("proj-1", "01jabc", ".jpg")
	content := []byte("fake image bytes")

	if err := store.Put(ctx, relPath, bytes.NewReader(content), -1, "image/jpeg"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	reader, err := store.Get(ctx, relPath)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !bytes.Equal(data, content) {
		t.Errorf("content mismatch: got %q", data)
	}

	exists, err := store.Exists(ctx, relPath)
	if err != nil || !exists {
		t.Errorf("expected blob to exist, got exists=%v err=%v", exists, err)
	}
}

// TestFSStoreGetMissing 测试读取不存在的对象返回 ErrNotFound.
func TestFSStoreGetMissing(t *testing.T) {
	store := newFSStore(t)

	_, err := store.Get(context.Background(), "proj-1/nope.jpg")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestFSStoreDelete 测试删除后对象不可见，重复删除不报错.
func TestFSStoreDelete(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	relPath := "proj-1/to-delete.png"
	if err := store.Put(ctx, relPath, bytes.NewReader([]byte("x")), -1, "image/png"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if err := store.Delete(ctx, relPath); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err := store.Exists(ctx, relPath)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}

	if exists {
		t.Error("expected blob to be gone after delete")
	}

	// 幂等
	if err := store.Delete(ctx, relPath); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
}

// TestFSStoreRejectsTraversal 测试越界路径被拒绝.
func TestFSStoreRejectsTraversal(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	for _, relPath := range []string{"../escape.txt", "/etc/passwd", "a/../../b"} {
		if err := store.Put(ctx, relPath, bytes.NewReader([]byte("x")), -1, ""); err == nil {
			t.Errorf("expected error for path %q, got nil", relPath)
		}
	}
}

// TestRelPath 测试对象路径布局 <project_id>/<blob_id><ext>.
func TestRelPath(t *testing.T) {
	got := blob.RelPath("proj-1", "01jabc", ".jpeg")
	if got != "proj-1/01jabc.jpeg" {
		t.Errorf("RelPath = %q, want proj-1/01jabc.jpeg", got)
	}

	// 无扩展名
	got = blob.RelPath("proj-1", "01jabc", "")
	if got != "proj-1/01jabc" {
		t.Errorf("RelPath = %q, want proj-1/01jabc", got)
	}
}
