package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// supportedExtensions lists the page raster formats the runner accepts.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// PageFile is one discovered page raster.
type PageFile struct {
	Path   string
	Stem   string
	Number int
}

var trailingDigitsRe = regexp.MustCompile(`(\d+)\D*$`)

// InferPageNumber reads the page number from the last digit run in the
// file name, so scan_012.png and p12-final.jpg both map to page 12.
func InferPageNumber(path string, fallback int) int {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	m := trailingDigitsRe.FindStringSubmatch(base)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// DiscoverImages finds the page rasters in a directory, ordered by
// inferred page number. Only the top level is scanned.
func DiscoverImages(dir string) ([]PageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	var pages []PageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !supportedExtensions[ext] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		pages = append(pages, PageFile{
			Path:   path,
			Stem:   stem,
			Number: InferPageNumber(path, len(pages)+1),
		})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no supported images found in %s", dir)
	}

	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Number != pages[j].Number {
			return pages[i].Number < pages[j].Number
		}
		return pages[i].Path < pages[j].Path
	})
	return pages, nil
}

// LoadImage reads one page raster from disk.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}
