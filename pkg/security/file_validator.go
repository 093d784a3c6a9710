package security

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// UploadKind selects the whitelist a file is checked against.
type UploadKind string

const (
	KindResume UploadKind = "resume"
	KindImage  UploadKind = "image"
)

type FileValidationResult struct {
	Valid        bool
	Extension    string
	DetectedMIME string
	Error        string
}

var magicBytes = map[string][][]byte{
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	".gif":  {[]byte("GIF87a"), []byte("GIF89a")},
	".pdf":  {[]byte("%PDF")},
	".doc":  {{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
	".docx": {{0x50, 0x4B, 0x03, 0x04}},
}

type uploadPolicy struct {
	extensions map[string]bool
	mimes      map[string]bool
}

var policies = map[UploadKind]uploadPolicy{
	KindResume: {
		extensions: map[string]bool{".pdf": true, ".doc": true, ".docx": true},
		mimes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/zip":    true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		},
	},
	KindImage: {
		extensions: map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true},
		mimes:      map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true},
	},
}

// ValidateFile checks extension, magic bytes and sniffed MIME for kind.
// PDFs must additionally open as a document.
func ValidateFile(kind UploadKind, filename string, data []byte) FileValidationResult {
	result := FileValidationResult{DetectedMIME: DetectContentType(data)}

	policy, ok := policies[kind]
	if !ok {
		result.Error = fmt.Sprintf("unknown upload kind %q", kind)
		return result
	}

	ext := strings.ToLower(filepath.Ext(filename))
	result.Extension = ext
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	if !policy.extensions[ext] {
		result.Error = "file extension not allowed: " + ext
		return result
	}
	if !hasMagic(ext, data) {
		result.Error = "file content does not match extension"
		return result
	}

	// .doc is an OLE container that sniffs as octet-stream
	if result.DetectedMIME == "application/octet-stream" && ext != ".doc" {
		result.Error = "file type could not be determined"
		return result
	}
	if result.DetectedMIME != "application/octet-stream" && !policy.mimes[result.DetectedMIME] {
		result.Error = "MIME type not allowed: " + result.DetectedMIME
		return result
	}

	if ext == ".pdf" {
		if err := CheckPDF(data); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	result.Valid = true
	return result
}

func hasMagic(ext string, data []byte) bool {
	for _, sig := range magicBytes[ext] {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// DetectContentType sniffs at most the first 512 bytes.
func DetectContentType(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}

// ErrCorruptPDF is returned for PDFs that cannot be opened.
var ErrCorruptPDF = errors.New("pdf document is corrupt or unreadable")

// CheckPDF opens the document and requires at least one page.
func CheckPDF(data []byte) (err error) {
	defer func() {
		// the parser panics on some malformed xref tables
		if r := recover(); r != nil {
			err = ErrCorruptPDF
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ErrCorruptPDF
	}
	if reader.NumPage() < 1 {
		return ErrCorruptPDF
	}
	return nil
}
