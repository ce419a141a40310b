package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputPaths names the four files a page produces.
type OutputPaths struct {
	PDF        string
	Manifest   string
	Source     string
	Translated string
}

// PathsFor returns the output file paths for a page stem inside dir.
func PathsFor(dir, stem string, manifestFormat string) OutputPaths {
	ext := ".json"
	if manifestFormat == "yaml" {
		ext = ".yaml"
	}
	return OutputPaths{
		PDF:        filepath.Join(dir, stem+"_translated.pdf"),
		Manifest:   filepath.Join(dir, stem+"_artifacts"+ext),
		Source:     filepath.Join(dir, stem+"_source.txt"),
		Translated: filepath.Join(dir, stem+"_translated.txt"),
	}
}

// WriteOutputs writes the composed PDF, the artifact manifest and the
// two audit text files for one page. A PDF failure is page-fatal;
// manifest and audit failures are not recoverable either since they
// are plain writes.
func (p *Pipeline) WriteOutputs(result *PageResult, paths OutputPaths, manifestFormat string) error {
	if err := os.MkdirAll(filepath.Dir(paths.PDF), 0o755); err != nil {
		return &CompositionError{Page: result.Page, Err: err}
	}

	f, err := os.Create(paths.PDF)
	if err != nil {
		return &CompositionError{Page: result.Page, Err: err}
	}
	if err := p.composer.WritePDF(result.Document, f); err != nil {
		f.Close()
		return &CompositionError{Page: result.Page, Err: err}
	}
	if err := f.Close(); err != nil {
		return &CompositionError{Page: result.Page, Err: err}
	}

	manifest := result.Manifest
	manifest.Warnings = result.Warnings
	var data []byte
	if manifestFormat == "yaml" {
		data, err = manifest.EncodeYAML()
	} else {
		data, err = manifest.EncodeJSON()
	}
	if err != nil {
		return fmt.Errorf("encoding manifest for page %d: %w", result.Page, err)
	}
	if err := os.WriteFile(paths.Manifest, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := os.WriteFile(paths.Source, []byte(result.SourceText), 0o644); err != nil {
		return fmt.Errorf("writing source text: %w", err)
	}
	if err := os.WriteFile(paths.Translated, []byte(result.TranslatedText), 0o644); err != nil {
		return fmt.Errorf("writing translated text: %w", err)
	}
	return nil
}
