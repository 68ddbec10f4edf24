package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	payload := bytes.Repeat([]byte{0xAB, 0xCD}, 4096)
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified failed: %v", err)
	}

	copied, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !bytes.Equal(copied, payload) {
		t.Fatal("copied bytes differ from source")
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "absent"), filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestSafeBaseName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"app.zip", "app"},
		{"My Game.zip", "My Game"},
		{"../../etc/passwd", "passwd"},
		{`..\..\windows\system32.zip`, "system32"},
		{"weird$#%chars!.zip", "weirdchars"},
		{"archive.tar.gz", "archive.tar"},
		{"....", "..."},
		{"///", ""},
	}
	for _, tc := range cases {
		if got := SafeBaseName(tc.input); got != tc.want {
			t.Errorf("SafeBaseName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
