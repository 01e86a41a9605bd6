package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// docxText walks word/document.xml and returns one line per paragraph (w:p),
// concatenating its text runs (w:t). Tabs and breaks inside a paragraph become spaces.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract docx: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("extract docx: missing %s", docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("extract docx: %w", err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", fmt.Errorf("extract docx: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// Body parts use the transitional namespace; strict OOXML documents use the purl one.
var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
}

// docxParagraphs keeps one builder per open w:p. Text boxes nest whole
// paragraphs inside a run, so an inner paragraph is emitted when it closes and
// the enclosing one carries on where it left off. DrawingML a:p/a:t are skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		open       []*strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = len(open) > 0
			case "tab", "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].WriteByte(' ')
				}
			}
		case xml.EndElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(open) == 0 {
					continue
				}
				current := open[len(open)-1]
				open = open[:len(open)-1]
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
			}
		case xml.CharData:
			if inText {
				open[len(open)-1].Write(t)
			}
		}
	}
	return paragraphs, nil
}
