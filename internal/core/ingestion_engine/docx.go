package ingestion_engine

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

func (e *Extractor) extractDOCX(path string) string {
	text, err := docxParagraphs(path)
	if err != nil {
		return fmt.Sprintf("Error extracting text from DOCX: %v", err)
	}
	return text
}

// docxParagraphs joins the body paragraphs of word/document.xml with "\n".
// Empty paragraphs are kept; paragraphs nested in tables are not body paragraphs.
func docxParagraphs(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		dec        = xml.NewDecoder(rc)
		stack      []string
		paragraphs []string
		cur        strings.Builder
		inPara     bool
		inText     bool
	)
	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "p" && parent() == "body":
				inPara = true
				cur.Reset()
			case !inPara || parent() != "r":
			case name == "t":
				inText = true
			case name == "tab":
				cur.WriteByte('\t')
			case name == "br" || name == "cr":
				cur.WriteByte('\n')
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara && parent() == "body" {
					paragraphs = append(paragraphs, cur.String())
					inPara = false
				}
			}

		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
