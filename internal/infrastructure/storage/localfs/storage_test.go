package localfs

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

func TestSaveAndOpen(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "doc-1_paris.txt", strings.NewReader("Paris is the capital.")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r, err := s.Open(ctx, "doc-1_paris.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	raw, _ := io.ReadAll(r)
	if string(raw) != "Paris is the capital." {
		t.Fatalf("unexpected content %q", raw)
	}

	entries, _ := os.ReadDir(s.basePath)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestOpenMissingFile(t *testing.T) {
	s, _ := New(t.TempDir())
	if _, err := s.Open(context.Background(), "nope.txt"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRejectsPathTraversal(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.Save(context.Background(), "../escape.txt", strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
