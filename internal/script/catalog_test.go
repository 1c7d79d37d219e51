package script

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

const sampleScripts = `banks:
  alpha:
    register:
      - text: "Open the app"
        age: 18
      - text: "Upload your document"
        images: ["doc-guide"]
    change:
      - text: "Open settings"
  beta:
    register:
      - text: "Visit a branch"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeScripts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scripts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scripts: %v", err)
	}
	return path
}

func TestNewLoadsCatalog(t *testing.T) {
	catalog, err := New(writeScripts(t, sampleScripts), discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	steps := catalog.Steps("alpha", model.OperationRegister)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Text != "Open the app" {
		t.Fatalf("unexpected first step text %q", steps[0].Text)
	}
	if len(steps[1].Images) != 1 || steps[1].Images[0] != "doc-guide" {
		t.Fatalf("expected image on second step, got %v", steps[1].Images)
	}

	if got := catalog.Steps("alpha", model.OperationChange); len(got) != 1 {
		t.Fatalf("expected 1 change step, got %d", len(got))
	}
	if got := catalog.Steps("gamma", model.OperationRegister); got != nil {
		t.Fatalf("expected nil for unknown bank, got %v", got)
	}
}

func TestNewMissingFileYieldsEmptyCatalog(t *testing.T) {
	catalog, err := New(filepath.Join(t.TempDir(), "absent.yaml"), discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if got := catalog.Banks(model.OperationRegister); len(got) != 0 {
		t.Fatalf("expected no banks, got %v", got)
	}
}

func TestNewRejectsInvalidScripts(t *testing.T) {
	if _, err := New(writeScripts(t, "banks: {alpha: {transfer: [{text: hi}]}}"), discardLogger()); err == nil {
		t.Fatal("expected error for unknown operation")
	}

	if _, err := New(writeScripts(t, "banks: {alpha: {register: [{}]}}"), discardLogger()); err == nil {
		t.Fatal("expected error for empty step")
	}

	if _, err := New(writeScripts(t, "banks: ["), discardLogger()); err == nil {
		t.Fatal("expected error for broken yaml")
	}
}

func TestBanksSortedAndFiltered(t *testing.T) {
	catalog, err := New(writeScripts(t, sampleScripts), discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	banks := catalog.Banks(model.OperationRegister)
	if len(banks) != 2 || banks[0] != "alpha" || banks[1] != "beta" {
		t.Fatalf("expected [alpha beta], got %v", banks)
	}

	banks = catalog.Banks(model.OperationChange)
	if len(banks) != 1 || banks[0] != "alpha" {
		t.Fatalf("expected [alpha] for change, got %v", banks)
	}
}

func TestAgeRequirement(t *testing.T) {
	catalog, err := New(writeScripts(t, sampleScripts), discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	age, ok := catalog.AgeRequirement("alpha", model.OperationRegister)
	if !ok || age != 18 {
		t.Fatalf("expected age 18, got %d ok=%v", age, ok)
	}

	if _, ok := catalog.AgeRequirement("beta", model.OperationRegister); ok {
		t.Fatal("expected no age requirement for beta")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeScripts(t, sampleScripts)
	catalog, err := New(path, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	updated := `banks:
  gamma:
    register:
      - text: "Brand new script"
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite scripts: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("bump mtime: %v", err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		catalog.Watch(done, 10*time.Millisecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(catalog.Steps("gamma", model.OperationRegister)) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	close(done)
	<-stopped

	if len(catalog.Steps("gamma", model.OperationRegister)) != 1 {
		t.Fatal("expected watcher to pick up the new script")
	}
	if got := catalog.Steps("alpha", model.OperationRegister); got != nil {
		t.Fatalf("expected old bank to be gone, got %v", got)
	}
}
