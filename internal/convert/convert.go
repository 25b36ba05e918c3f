package convert

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEPDF  = "application/pdf"
)

// NormalizeMIME lowercases a content type and strips parameters
func NormalizeMIME(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// DetectMIME returns the normalized content type of an upload, falling back to
// its file extension when the client did not send one
func DetectMIME(filename, contentType string) string {
	if mimeType := NormalizeMIME(contentType); mimeType != "" && mimeType != "application/octet-stream" {
		return mimeType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return MIMEJPEG
	case ".png":
		return MIMEPNG
	case ".gif":
		return "image/gif"
	case ".pdf":
		return MIMEPDF
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// renderPDF renders the first page of a PDF (most invoices and checks are single page)
func renderPDF(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes JPEG, PNG, GIF, HEIC and HEIF, applying EXIF orientation
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	// Go's standard image package doesn't support HEIC
	if IsHEIC(imageData, mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// load turns any supported upload into an image
func load(data []byte, contentType string) (image.Image, error) {
	mimeType := NormalizeMIME(contentType)
	if mimeType == MIMEPDF {
		return renderPDF(data)
	}
	return decodeImage(data, mimeType)
}

// IsHEIC checks the ftyp box brand and the MIME type for HEIC/HEIF
func IsHEIC(data []byte, mimeType string) bool {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	mimeType = NormalizeMIME(mimeType)
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// ToPNG converts PDFs and non-PNG images to PNG.
// The boolean reports whether a conversion happened.
func ToPNG(data []byte, contentType string) ([]byte, bool, error) {
	mimeType := NormalizeMIME(contentType)
	if mimeType == "" {
		mimeType = MIMEJPEG
	}
	if mimeType == MIMEPNG && !IsHEIC(data, mimeType) {
		return data, false, nil
	}

	img, err := load(data, mimeType)
	if err != nil {
		return nil, false, fmt.Errorf("converting %s to PNG: %w", mimeType, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, false, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), true, nil
}

// Thumbnail renders an upload as a JPEG that fits within maxDim x maxDim.
// Images already inside the bounds keep their size.
func Thumbnail(data []byte, contentType string, maxDim int) ([]byte, error) {
	img, err := load(data, contentType)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
