package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"token", "abc",
		"author_id", "8c0e7b2e-4d1f-4a39-9f6e-0d6a1c3b2a11",
		"amount", "150.00",
	})
	if len(out) != 6 {
		t.Fatalf("kv len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") {
		t.Fatalf("author_id not hashed: %v", out[3])
	}
	if out[5] != "150.00" {
		t.Fatalf("amount should pass through, got %v", out[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"op", "append", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %+v", out)
	}
}
