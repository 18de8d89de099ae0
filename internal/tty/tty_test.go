package tty

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tests := []struct {
		name string
		env  map[string]string
		want Env
	}{
		{"plain file", nil, Env{}},
		{"github actions", map[string]string{"GITHUB_ACTIONS": "true"}, Env{Color: true, GitHub: true}},
		{"github no color", map[string]string{"GITHUB_ACTIONS": "true", "NO_COLOR": ""}, Env{GitHub: true}},
		{"github dumb term", map[string]string{"GITHUB_ACTIONS": "TRUE", "TERM": "dumb"}, Env{GitHub: true}},
		{"github false", map[string]string{"GITHUB_ACTIONS": "false"}, Env{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			}
			if got := Detect(f, lookup); got != tt.want {
				t.Errorf("Detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsTTY_Nil(t *testing.T) {
	if IsTTY(nil) {
		t.Error("IsTTY(nil) = true")
	}
}
