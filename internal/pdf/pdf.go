// Package pdf wraps the pdfcpu operations the batch runner needs:
// pulling page rasters out of a scanned source PDF and merging the
// per-page output documents back into one file.
package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/tiff"
)

// PageImage is one raster extracted from a source PDF.
type PageImage struct {
	Page  int
	Image image.Image
}

// ExtractPageImages pulls the embedded page scans out of a PDF. Scanned
// books carry one full-page image per page, so the first image of each
// page is taken as its raster.
func ExtractPageImages(filename string) ([]PageImage, error) {
	tempDir, err := os.MkdirTemp("", "repage-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(filename, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from %s: %w", filename, err)
	}
	return collectPageImages(tempDir)
}

// extractedNameRe matches pdfcpu's extraction naming, which embeds the
// source page number: <basename>_<page>_Im<idx>.<ext>.
var extractedNameRe = regexp.MustCompile(`_(\d+)_[A-Za-z]+\d*\.(?:png|jpg|jpeg|tiff?)$`)

func collectPageImages(dir string) ([]PageImage, error) {
	seen := make(map[int]image.Image)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		m := extractedNameRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			return nil
		}
		page, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			return nil
		}
		if _, ok := seen[page]; ok {
			return nil
		}
		img, loadErr := loadImageFile(path)
		if loadErr != nil {
			return fmt.Errorf("failed to load extracted image %s: %w", path, loadErr)
		}
		seen[page] = img
		return nil
	})
	if err != nil {
		return nil, err
	}

	pages := make([]PageImage, 0, len(seen))
	for page, img := range seen {
		pages = append(pages, PageImage{Page: page, Image: img})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	return pages, nil
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: extraction temp dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// MergePages merges the per-page PDFs into a single document, in the
// given order.
func MergePages(inFiles []string, outFile string) error {
	if len(inFiles) == 0 {
		return fmt.Errorf("no input files to merge")
	}
	if err := api.MergeCreateFile(inFiles, outFile, false, nil); err != nil {
		return fmt.Errorf("failed to merge %d files into %s: %w", len(inFiles), outFile, err)
	}
	return nil
}

// PageCount reports the number of pages in a PDF file.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count of %s: %w", filename, err)
	}
	return n, nil
}
