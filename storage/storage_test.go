package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/storage"
	_ "github.com/kbukum/audioscribe/storage/local"
)

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"transcription-2026-10-16.txt": "text/plain; charset=utf-8",
		"jobs/abc.json":                "application/json",
		"chunk-a-0.mp3":                "audio/mpeg",
		"noext":                        "application/octet-stream",
	}
	for p, want := range tests {
		if got := storage.ContentType(p); got != want {
			t.Errorf("%s: got %q, want %q", p, got, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{"local ok", storage.Config{Provider: "local", BasePath: "/tmp/x"}, ""},
		{"local missing path", storage.Config{Provider: "local"}, "base_path is required"},
		{"s3 ok", storage.Config{Provider: "s3", Bucket: "b", Region: "us-east-1"}, ""},
		{"s3 missing bucket", storage.Config{Provider: "s3", Region: "us-east-1"}, "bucket is required"},
		{"s3 half credentials", storage.Config{Provider: "s3", Bucket: "b", Region: "r", AccessKey: "a"}, "must be set together"},
		{"unknown", storage.Config{Provider: "ftp"}, "must be one of: local, s3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNew_Local(t *testing.T) {
	s, err := storage.New(context.Background(), storage.Config{BasePath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Upload(context.Background(), "a.txt", strings.NewReader("hola")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ok, _ := s.Exists(context.Background(), "a.txt"); !ok {
		t.Error("expected object to exist")
	}
}

func TestNew_Unregistered(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Provider: "s3", Bucket: "b"}, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected not registered error, got %v", err)
	}
}
