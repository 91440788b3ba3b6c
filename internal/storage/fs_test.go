package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	key, err := s.Put("chapters/ch-1/source.txt", strings.NewReader("verse one\nverse two\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "verse one\nverse two\n" {
		t.Fatalf("content = %q", b)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(key); err == nil {
		t.Fatalf("expected miss after delete")
	}
}

func TestResolveNeverEscapesBase(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	for _, key := range []string{"../../etc/passwd", "a/../../b", "/abs/path", "..", "x/.."} {
		p, err := s.resolve(key)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(p, s.base+string(filepath.Separator)) {
			t.Fatalf("key %q resolved outside base: %q", key, p)
		}
	}
	if _, err := s.resolve(""); err == nil {
		t.Fatalf("empty key accepted")
	}
}
