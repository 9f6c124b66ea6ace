package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/radialmap/pkg/errors"
)

func TestRootCommandWiring(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"layout", "arrange", "focus", "export", "watch", "serve", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := parseIDs(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseIDs(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != "svg" {
		t.Errorf("parseFormats(\"\") = %v, want [svg]", got)
	}
	if got := parseFormats("json,png"); len(got) != 2 {
		t.Errorf("parseFormats(\"json,png\") = %v", got)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()

	t.Run("derives paths from input", func(t *testing.T) {
		err := writeArtifacts(artifactWriteParams{
			artifacts: map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")},
			formats:   []string{"svg", "json"},
			input:     filepath.Join(dir, "taxonomy.json"),
		})
		if err != nil {
			t.Fatalf("writeArtifacts: %v", err)
		}
		for _, name := range []string{"taxonomy.svg", "taxonomy.json"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("missing artifact %s: %v", name, err)
			}
		}
	})

	t.Run("explicit output for single format", func(t *testing.T) {
		out := filepath.Join(dir, "custom.svg")
		err := writeArtifacts(artifactWriteParams{
			artifacts: map[string][]byte{"svg": []byte("<svg/>")},
			formats:   []string{"svg"},
			input:     filepath.Join(dir, "taxonomy.json"),
			output:    out,
		})
		if err != nil {
			t.Fatalf("writeArtifacts: %v", err)
		}
		if _, err := os.Stat(out); err != nil {
			t.Errorf("missing artifact %s: %v", out, err)
		}
	})

	t.Run("rejects malformed output path", func(t *testing.T) {
		err := writeArtifacts(artifactWriteParams{
			artifacts: map[string][]byte{"svg": []byte("<svg/>")},
			formats:   []string{"svg"},
			input:     filepath.Join(dir, "taxonomy.json"),
			output:    "bad\x00path.svg",
		})
		if !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("writeArtifacts error = %v, want %v", err, errors.ErrCodeInvalidPath)
		}
	})
}

func TestLoadTaxonomyRejectsMalformedPath(t *testing.T) {
	if _, err := loadTaxonomy("tax\x00onomy.json"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("loadTaxonomy error = %v, want %v", err, errors.ErrCodeInvalidPath)
	}
}
