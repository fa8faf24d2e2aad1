package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/yard-planner/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "seeds")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	store := createTestStore(t)

	content := `{"containers":[]}`
	info, err := store.Save("yard.json", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	if info.ID == "" {
		t.Error("Expected ID to be set")
	}
	if info.Name != "yard.json" {
		t.Errorf("Expected name 'yard.json', got %v", info.Name)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), info.Size)
	}
	if info.Status != models.SeedUploaded {
		t.Errorf("Expected status uploaded, got %v", info.Status)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("GetFilePath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(data) != content {
		t.Errorf("Expected content %q, got %q", content, string(data))
	}
}

func TestLocalStore_SaveReadError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	boom := errors.New("stream cut")
	if _, err := store.Save("yard.json", iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped read error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected partial file to be removed, found %d entries", len(entries))
	}
	if list, _ := store.List(0); len(list) != 0 {
		t.Errorf("Expected no metadata for a failed save, got %d", len(list))
	}
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)

	if _, err := store.Get("missing"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		if _, err := store.Save(name, strings.NewReader("{}")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	t.Run("newest first", func(t *testing.T) {
		list, err := store.List(0)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("Expected 3 files, got %d", len(list))
		}
		if list[0].Name != "c.json" {
			t.Errorf("Expected newest file first, got %v", list[0].Name)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		list, _ := store.List(2)
		if len(list) != 2 {
			t.Errorf("Expected 2 files, got %d", len(list))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)

	info, _ := store.Save("yard.json", strings.NewReader("{}"))
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed from disk")
	}
	if err := store.Delete(info.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestLocalStore_Update(t *testing.T) {
	store := createTestStore(t)

	first, _ := store.Save("first.json", strings.NewReader("{}"))
	second, _ := store.Save("second.json", strings.NewReader("{}"))

	if _, err := store.Update(first.ID, models.SeedActive, 12); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := store.Get(first.ID)
	if got.Status != models.SeedActive || got.Containers != 12 {
		t.Errorf("Expected active with 12 containers, got %v/%d", got.Status, got.Containers)
	}

	t.Run("activating another demotes the previous", func(t *testing.T) {
		if _, err := store.Update(second.ID, models.SeedActive, 3); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		prev, _ := store.Get(first.ID)
		if prev.Status != models.SeedUploaded {
			t.Errorf("Expected previous seed demoted, got %v", prev.Status)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := store.Update("missing", models.SeedInvalid, 0); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}

func TestLocalStore_ConcurrentAccess(t *testing.T) {
	store := createTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := store.Save("seed.json", strings.NewReader("{}"))
			if err != nil {
				t.Errorf("Save failed: %v", err)
				return
			}
			if _, err := store.Get(info.ID); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := store.List(0)
	if len(list) != 20 {
		t.Errorf("Expected 20 files, got %d", len(list))
	}
}

func testPrefStore(t *testing.T, store PrefStore) {
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "darkMode"); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "darkMode", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "darkMode", "false"); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	v, ok, err := store.Get(ctx, "darkMode")
	if err != nil || !ok || v != "false" {
		t.Errorf("Expected false, got %q ok=%v err=%v", v, ok, err)
	}

	_ = store.Set(ctx, "selectedTheme", "theme-one")
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 || all["selectedTheme"] != "theme-one" {
		t.Errorf("Unexpected snapshot: %v", all)
	}

	if err := store.Delete(ctx, "darkMode"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "darkMode"); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestMemoryPrefStore(t *testing.T) {
	store := NewMemoryPrefStore()
	defer store.Close()
	testPrefStore(t, store)
}

func TestDuckPrefStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "settings.duckdb")
	store, err := NewDuckPrefStore(path, DuckOptions{}, nil)
	if err != nil {
		t.Fatalf("Failed to open DuckPrefStore: %v", err)
	}
	testPrefStore(t, store)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	t.Run("values survive reopen", func(t *testing.T) {
		reopened, err := NewDuckPrefStore(path, DuckOptions{}, nil)
		if err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}
		defer reopened.Close()

		v, ok, _ := reopened.Get(context.Background(), "selectedTheme")
		if !ok || v != "theme-one" {
			t.Errorf("Expected persisted theme, got %q ok=%v", v, ok)
		}
	})
}
