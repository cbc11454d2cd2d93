package xawk_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolkov/xawk"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csv.yaml")
	data := `
fs: ","
ofs: "|"
header: true
posix: false
vars:
  limit: "3"
  prefix: "row"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	prof, err := xawk.LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	config := &xawk.Config{Variables: map[string]string{"prefix": "line"}}
	prof.Apply(config)

	if config.FS != "," || config.OFS != "|" || !config.Header {
		t.Errorf("Apply() = %+v", config)
	}
	if config.POSIXRegex == nil || *config.POSIXRegex {
		t.Error("posix: false was not applied")
	}
	if config.Variables["prefix"] != "line" || config.Variables["limit"] != "3" {
		t.Errorf("Variables = %v", config.Variables)
	}

	got, err := xawk.Run(`NR <= limit { print prefix, $"name" }`, strings.NewReader("id,name\n1,ann\n2,bo\n3,cy\n"), config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "line|ann\nline|bo\n"; got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty", "", false},
		{"formats", "convfmt: \"%.2g\"\nofmt: \"%.3f\"\n", false},
		{"unknown key", "separator: \",\"\n", true},
		{"bad type", "header: [1, 2]\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xawk.ParseProfile([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileParagraphMode(t *testing.T) {
	prof, err := xawk.ParseProfile([]byte("rs: \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	config := &xawk.Config{}
	prof.Apply(config)

	got, err := xawk.Run(`{ print NR, NF }`, strings.NewReader("a b\nc\n\nd\n"), config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "1 3\n2 1\n"; got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
}

func TestLoadProfileMissing(t *testing.T) {
	if _, err := xawk.LoadProfile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected an error for a missing profile")
	}
}
