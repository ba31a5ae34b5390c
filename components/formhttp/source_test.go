package formhttp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/definition"
)

func TestDirSource_ServesAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup.yaml")
	if err := os.WriteFile(path, []byte("name: signup\ntitle: Sign Up\nfields: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := NewDirSource(dir, definition.WithDebounce(60*time.Millisecond))
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	defer src.Close()

	def, ok := src.Form("signup")
	if !ok {
		t.Fatalf("signup not served: %v", src.Names())
	}
	if def.Title != "Sign Up" {
		t.Fatalf("title = %q", def.Title)
	}

	if err := os.WriteFile(path, []byte("name: signup\ntitle: Updated\nfields: []\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if def, ok := src.Form("signup"); ok && def.Title == "Updated" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reload not observed")
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestDirSource_KeepsLastGoodRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup.yaml")
	if err := os.WriteFile(path, []byte("name: signup\nfields: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := NewDirSource(dir, definition.WithDebounce(60*time.Millisecond))
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	defer src.Close()

	// Break the file; the previously loaded set keeps serving.
	if err := os.WriteFile(path, []byte(":\n:::not yaml or json"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if _, ok := src.Form("signup"); !ok {
		t.Fatal("broken reload evicted the last good registry")
	}
}

func TestDirSource_MissingDir(t *testing.T) {
	if _, err := NewDirSource(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
