package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"mnyama/internal/blob/core"
)

func TestStore_MissingHeadGet(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Head(ctx, "../escape"); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}

func TestStore_AllBranches(t *testing.T) {
	store := New()
	ctx := context.Background()
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false")
	}
	key := core.CreatureImageKey("simba", "png")
	info, err := store.Put(ctx, key, bytes.NewReader([]byte("\x89PNG\r\n\x1a\n....")), core.PutOptions{Metadata: map[string]string{"creature": "simba"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ContentType != "image/png" || info.ETag == "" || info.Size != 12 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, key, bytes.NewReader([]byte("v2")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected duplicate put error, got %v", err)
	}
	got, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if len(body) != 12 || got.Metadata["creature"] != "simba" {
		t.Fatalf("unexpected get result %+v", got)
	}
	got.Metadata["creature"] = "changed"
	if head, _ := store.Head(ctx, key); head.Metadata["creature"] != "simba" {
		t.Fatalf("expected metadata isolation")
	}
	if list, err := store.List(ctx, ""); err != nil || len(list) != 1 {
		t.Fatalf("list all: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, core.CreatureImagePrefix("other")); err != nil || len(list) != 0 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if _, err := store.PresignURL(ctx, key, core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign")
	}
	if ok, err := store.Delete(ctx, key); err != nil || !ok {
		t.Fatalf("expected delete true, got %v %v", ok, err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStore_PutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}
