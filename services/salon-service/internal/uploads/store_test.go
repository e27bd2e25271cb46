package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "photos"), "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	res, err := store.Save(context.Background(), "Salon.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(res.Filename, ".png") || res.URL != "/uploads/"+res.Filename {
		t.Fatalf("unexpected result %+v", res)
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), res.Filename))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("unexpected file content %q err=%v", data, err)
	}
}

func TestObjectNameRejectsUnknownTypes(t *testing.T) {
	if _, err := ObjectName("script.sh"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}
