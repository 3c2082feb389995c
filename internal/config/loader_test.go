package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ErrorsNamePath(t *testing.T) {
	tests := []struct {
		name    string
		content string
		load    func(string) (*Config, error)
		want    string
	}{
		{
			name:    "malformed yaml",
			content: "models: [users\n",
			load:    Load,
			want:    "parse yaml",
		},
		{
			name: "unknown replica field",
			content: `
models:
  users:
    host: db
    replications:
      slave1:
        hots: replica-1
`,
			load: Load,
			want: "field hots not found",
		},
		{
			name: "validation failure",
			content: `
models:
  users:
    host: db
    name: app
    user: app
`,
			load: LoadAndValidate,
			want: "instance.id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.content)

			_, err := tt.load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name %s", err, path)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load() error = %v, want fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name %s", err, path)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if cfg.Instance.ID != "" || len(cfg.Models) != 0 {
		t.Errorf("Parse(nil) = %+v, want zero config", cfg)
	}
}
