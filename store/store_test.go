package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCaptureKey(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	got := CaptureKey("pytest", "sess-001", at)
	want := "captures/pytest/2026-03-14/sess-001.fcap"
	if got != want {
		t.Errorf("CaptureKey = %q, want %q", got, want)
	}
}

func TestValidateKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{"captures/pytest/2026-03-14/sess.fcap", true},
		{"", false},
		{"/absolute/key", false},
		{"captures/../escape", false},
	}
	for _, tc := range cases {
		err := ValidateKey(tc.key)
		if (err == nil) != tc.ok {
			t.Errorf("ValidateKey(%q) = %v, want ok=%v", tc.key, err, tc.ok)
		}
	}
}

func TestParseS3Path(t *testing.T) {
	bucket, prefix := ParseS3Path("my-bucket/flume/captures")
	if bucket != "my-bucket" || prefix != "flume/captures" {
		t.Errorf("got (%q, %q)", bucket, prefix)
	}
	bucket, prefix = ParseS3Path("only-bucket")
	if bucket != "only-bucket" || prefix != "" {
		t.Errorf("got (%q, %q)", bucket, prefix)
	}
}

func TestS3Config_Validate(t *testing.T) {
	if err := (&S3Config{}).Validate(); err == nil {
		t.Error("empty bucket accepted")
	}
	if err := (&S3Config{Bucket: "b"}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestFileStore_PutGet(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	key := CaptureKey("pytest", "sess-001", time.Now())

	if err := s.Put(ctx, key, []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want payload", data)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = s.Get(context.Background(), "captures/none/2026-01-01/x.fcap")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_RejectsEscapingKey(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Put(context.Background(), "../outside", []byte("x")); err == nil {
		t.Error("escaping key accepted")
	}
}

func TestStubStore_RoundTrip(t *testing.T) {
	s := NewStubStore()
	ctx := context.Background()
	if err := s.Put(ctx, "captures/a/b/c.fcap", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := s.Get(ctx, "captures/a/b/c.fcap")
	if err != nil || string(data) != "x" {
		t.Errorf("Get = (%q, %v)", data, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
