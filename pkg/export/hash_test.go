package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactHashDeterministic(t *testing.T) {
	data := []byte("%PDF-1.4 test artifact")
	a := ArtifactHash(data)
	b := ArtifactHash(data)
	if a != b {
		t.Errorf("hashes differ for identical input: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestArtifactHashDiffers(t *testing.T) {
	a := ArtifactHash([]byte("one"))
	b := ArtifactHash([]byte("two"))
	if a == b {
		t.Error("different inputs produced identical hashes")
	}
}

func TestShortHash(t *testing.T) {
	full := ArtifactHash([]byte("artifact"))
	short := ShortHash(full)
	if len(short) != 8 {
		t.Errorf("short hash length = %d, want 8", len(short))
	}
	if full[:8] != short {
		t.Errorf("short hash %s is not a prefix of %s", short, full)
	}
	if got := ShortHash("abc"); got != "abc" {
		t.Errorf("ShortHash on short input = %q, want passthrough", got)
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.pdf")
	data := []byte("file contents for hashing")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if want := ArtifactHash(data); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
