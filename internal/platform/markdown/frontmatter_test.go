package markdown_test

import (
	"testing"

	"gametune/internal/platform/markdown"
)

type reportMeta struct {
	Experiment string `yaml:"experiment"`
	Winner     string `yaml:"winner,omitempty"`
	Samples    int    `yaml:"samples"`
}

func TestRenderWritesFrontmatterThenBody(t *testing.T) {
	t.Parallel()
	doc, err := markdown.Render(reportMeta{Experiment: "exp-1", Samples: 240}, "# Report\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "---\nexperiment: exp-1\nsamples: 240\n---\n\n# Report\n"
	if doc != want {
		t.Fatalf("unexpected document:\n%q\nwant\n%q", doc, want)
	}
}

func TestRenderKeepsLeadingNewline(t *testing.T) {
	t.Parallel()
	doc, err := markdown.Render(map[string]string{"experiment": "exp-2"}, "\nbody")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc != "---\nexperiment: exp-2\n---\n\nbody" {
		t.Fatalf("unexpected document %q", doc)
	}
}
