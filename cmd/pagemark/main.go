// pagemark replays an annotation script over a PDF and writes the
// annotated copy.
//
// A script is a YAML list of editing steps, the same events a browser host
// sends to the engine:
//
//	scale: 1
//	steps:
//	  - tool: highlight
//	  - click: [220, 140]
//	  - tool: text
//	  - click: [72, 700]
//	  - text: "Reviewed"
//	  - image: {path: stamp.png, at: [400, 650]}
//
// Image paths are relative to the script's directory.
//
// Usage:
//
//	pagemark -pdf input.pdf -script steps.yml [options]
//
// Options:
//
//	-output string   Path for the annotated PDF (default edited-<input name>)
//	-preview string  Path for a PNG preview of the page the script ends on
//	-overwrite       Replace existing output files
//
// Engine settings such as MIN_BOX_SIZE or MAX_SCALE are read from the
// environment as for the server.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/config"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/export"
	"github.com/inamate/pagemark/internal/pdf"
	"github.com/inamate/pagemark/internal/render"
	"github.com/inamate/pagemark/internal/script"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to the input PDF file (required)")
	scriptPath := flag.String("script", "", "Path to the YAML annotation script (required)")
	outputPath := flag.String("output", "", "Path to save the annotated PDF")
	previewPath := flag.String("preview", "", "Path to save a PNG preview of the final page")
	overwrite := flag.Bool("overwrite", false, "Replace existing output files")

	flag.Parse()

	if *pdfPath == "" || *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -pdf and -script flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outputPath == "" {
		*outputPath = filepath.Join(filepath.Dir(*pdfPath), export.Filename(filepath.Base(*pdfPath)))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if err := run(cfg.EngineOptions(), *pdfPath, *scriptPath, *outputPath, *previewPath, *overwrite); err != nil {
		slog.Error("pagemark failed", "error", err)
		os.Exit(1)
	}
}

func run(opts engine.Options, pdfPath, scriptPath, outputPath, previewPath string, overwrite bool) error {
	if !overwrite {
		for _, p := range []string{outputPath, previewPath} {
			if p == "" {
				continue
			}
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s exists; use -overwrite to replace it", p)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}

	source, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("read PDF: %w", err)
	}
	sizes, err := pdf.Inspect(source)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", pdfPath, err)
	}
	pages := make([]engine.PageSize, len(sizes))
	for i, sz := range sizes {
		pages[i] = engine.PageSize{Width: sz.Width, Height: sz.Height}
	}

	s, err := script.Load(scriptPath)
	if err != nil {
		return err
	}

	e := engine.NewEngine(opts)
	e.LoadDocument(pages)
	runner := &script.Runner{
		Engine: e,
		Assets: asset.NewLibrary(),
		Files:  os.DirFS(filepath.Dir(scriptPath)),
	}
	res, err := runner.Run(s)
	if err != nil {
		return fmt.Errorf("run %s: %w", scriptPath, err)
	}
	slog.Info("script replayed", "steps", res.Steps, "pages", len(pages))

	out, err := export.Export(pdf.NewWriter(), source, e.Snapshot(), runner.Assets)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}
	slog.Info("wrote annotated PDF", "path", outputPath, "bytes", len(out))

	if previewPath == "" {
		return nil
	}
	img, err := render.Page(context.Background(), render.BlankRenderer{Sizes: pages},
		e.Page(), e.Scale(), e.PageDrawCommands(e.Page(), e.Scale()), runner.Assets)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := os.WriteFile(previewPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	slog.Info("wrote preview", "path", previewPath, "page", e.Page())
	return nil
}
