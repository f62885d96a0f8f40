package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDocumentRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{Title: "Untitled Document", Content: "<p>hello</p>"}

	if err := svc.EnsureDocumentRepo("doc_1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "doc_1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Second ensure is a no-op.
	if err := svc.EnsureDocumentRepo("doc_1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() second call error = %v", err)
	}

	updated := Content{Title: "Meeting Notes", Content: "<p>hello world</p>"}
	commit, err := svc.CommitContent("doc_1", updated, "Avery", "Update document")
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	commits, err := svc.History("doc_1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].Hash != commit.Hash {
		t.Fatalf("expected newest-first ordering, head = %+v", commits[0])
	}

	at, err := svc.ContentAt("doc_1", commit.Hash)
	if err != nil {
		t.Fatalf("ContentAt() error = %v", err)
	}
	if at.Title != "Meeting Notes" || at.Content != "<p>hello world</p>" {
		t.Fatalf("unexpected content at revision: %+v", at)
	}

	first, err := svc.ContentAt("doc_1", commits[1].Hash)
	if err != nil {
		t.Fatalf("ContentAt() baseline error = %v", err)
	}
	if first.Title != "Untitled Document" {
		t.Fatalf("unexpected baseline content: %+v", first)
	}
}

func TestRemoveDocumentRepo(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureDocumentRepo("doc_1", Content{Title: "Doc"}, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	if err := svc.RemoveDocumentRepo("doc_1"); err != nil {
		t.Fatalf("RemoveDocumentRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "doc_1")); !os.IsNotExist(err) {
		t.Fatalf("expected repo directory gone, stat err = %v", err)
	}
	// Removing twice is fine.
	if err := svc.RemoveDocumentRepo("doc_1"); err != nil {
		t.Fatalf("RemoveDocumentRepo() second call error = %v", err)
	}
}

func TestConcurrentCommitContent(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{Title: "Doc", Content: "v0"}
	if err := svc.EnsureDocumentRepo("doc_1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := Content{Title: "Doc", Content: fmt.Sprintf("v%02d", idx)}
			if _, err := svc.CommitContent("doc_1", next, "Avery", fmt.Sprintf("Save %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitContent() concurrent error = %v", err)
		}
	}

	commits, err := svc.History("doc_1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(commits) < writers+1 {
		t.Fatalf("expected at least %d commits, got %d", writers+1, len(commits))
	}

	head, err := svc.ContentAt("doc_1", commits[0].Hash)
	if err != nil {
		t.Fatalf("ContentAt() error = %v", err)
	}
	if !strings.HasPrefix(head.Content, "v") {
		t.Fatalf("unexpected head content after concurrent commits: %+v", head)
	}
}
