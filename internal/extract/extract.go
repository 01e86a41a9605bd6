package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupported is returned for files whose extension has no extractor.
var ErrUnsupported = errors.New("unsupported file type")

// Kind is the extraction strategy selected from a file name.
type Kind string

const (
	KindUnsupported Kind = ""
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindPDF         Kind = "pdf"
	KindDocx        Kind = "docx"
)

var kindsByExt = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"txt":  KindText,
	"py":   KindText,
	"pdf":  KindPDF,
	"docx": KindDocx,
}

// KindOf classifies a file by the extension of its original name.
func KindOf(filename string) Kind {
	return kindsByExt[Ext(filename)]
}

// Ext returns the lower-cased extension without the dot.
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// ImageFormat returns the short image format name ("jpeg", "png") for filename.
func ImageFormat(filename string) string {
	ext := Ext(filename)
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

// Text returns the textual content of data for the text-bearing kinds.
// Images have no text of their own and are rejected along with unknown kinds.
func Text(kind Kind, data []byte) (string, error) {
	switch kind {
	case KindText:
		return plainText(data), nil
	case KindPDF:
		return pdfText(data)
	case KindDocx:
		return docxText(data)
	case KindImage:
		return "", fmt.Errorf("extract: images carry no text")
	default:
		return "", ErrUnsupported
	}
}

func plainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
