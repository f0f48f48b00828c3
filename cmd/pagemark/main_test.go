package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/pdf"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(72, 72, "contract")
	doc.AddPage()
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "contract.pdf"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20)))
	if err := os.WriteFile(filepath.Join(dir, "stamp.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	steps := `
steps:
  - tool: highlight
  - click: [220, 140]
  - tool: text
  - click: [72, 300]
  - text: Reviewed
  - page: 2
  - image: {path: stamp.png, at: [400, 650]}
`
	if err := os.WriteFile(filepath.Join(dir, "steps.yml"), []byte(steps), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun(t *testing.T) {
	dir := writeFixtures(t)
	out := filepath.Join(dir, "out.pdf")
	preview := filepath.Join(dir, "out.png")

	err := run(engine.DefaultOptions(), filepath.Join(dir, "contract.pdf"), filepath.Join(dir, "steps.yml"), out, preview, false)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	sizes, err := pdf.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 2 {
		t.Errorf("pages = %d, want 2", len(sizes))
	}

	f, err := os.Open(preview)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 612 || cfg.Height != 792 {
		t.Errorf("preview = %dx%d, want 612x792", cfg.Width, cfg.Height)
	}
}

func TestRunRefusesOverwrite(t *testing.T) {
	dir := writeFixtures(t)
	out := filepath.Join(dir, "out.pdf")
	os.WriteFile(out, []byte("keep"), 0o644)

	err := run(engine.DefaultOptions(), filepath.Join(dir, "contract.pdf"), filepath.Join(dir, "steps.yml"), out, "", false)
	if err == nil || !strings.Contains(err.Error(), "-overwrite") {
		t.Fatalf("err = %v, want overwrite refusal", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "keep" {
		t.Error("existing output was replaced")
	}

	if err := run(engine.DefaultOptions(), filepath.Join(dir, "contract.pdf"), filepath.Join(dir, "steps.yml"), out, "", true); err != nil {
		t.Fatal(err)
	}
}
