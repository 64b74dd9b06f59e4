package normalize

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

const (
	docxBodyPath      = "word/document.xml"
	docxNumberingPath = "word/numbering.xml"
)

// ErrNoDocumentBody is returned for zip files without word/document.xml.
var ErrNoDocumentBody = errors.New("missing " + docxBodyPath)

// ReadDocx extracts the paragraphs of a Word document. Numbered paragraphs
// are list items only when their numbering level is a bullet; decimal and
// other ordered formats mark auto-numbered questions.
func ReadDocx(r io.ReaderAt, size int64) ([]Paragraph, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening docx container: %w", err)
	}

	var bodyEntry, numberingEntry *zip.File
	for _, entry := range archive.File {
		switch entry.Name {
		case docxBodyPath:
			bodyEntry = entry
		case docxNumberingPath:
			numberingEntry = entry
		}
	}
	if bodyEntry == nil {
		return nil, ErrNoDocumentBody
	}

	var formats numberingFormats
	if numberingEntry != nil {
		formats, err = readNumbering(numberingEntry)
		if err != nil {
			return nil, err
		}
	}

	body, err := bodyEntry.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docxBodyPath, err)
	}
	defer body.Close()
	return parseDocumentXML(body, formats)
}

// numberingXML is the subset of word/numbering.xml needed to tell bullet
// lists from ordered lists.
type numberingXML struct {
	AbstractNums []struct {
		ID     string `xml:"abstractNumId,attr"`
		Levels []struct {
			Level  string `xml:"ilvl,attr"`
			Format struct {
				Val string `xml:"val,attr"`
			} `xml:"numFmt"`
		} `xml:"lvl"`
	} `xml:"abstractNum"`
	Nums []struct {
		ID       string `xml:"numId,attr"`
		Abstract struct {
			Val string `xml:"val,attr"`
		} `xml:"abstractNumId"`
	} `xml:"num"`
}

// numberingFormats maps numId and level to the numFmt value, e.g. "bullet"
// or "decimal".
type numberingFormats map[string]map[string]string

func readNumbering(entry *zip.File) (numberingFormats, error) {
	file, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docxNumberingPath, err)
	}
	defer file.Close()

	var numbering numberingXML
	if err := xml.NewDecoder(file).Decode(&numbering); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docxNumberingPath, err)
	}

	abstractLevels := make(map[string]map[string]string, len(numbering.AbstractNums))
	for _, abstract := range numbering.AbstractNums {
		levels := make(map[string]string, len(abstract.Levels))
		for _, level := range abstract.Levels {
			levels[level.Level] = level.Format.Val
		}
		abstractLevels[abstract.ID] = levels
	}

	formats := make(numberingFormats, len(numbering.Nums))
	for _, num := range numbering.Nums {
		if levels, ok := abstractLevels[num.Abstract.Val]; ok {
			formats[num.ID] = levels
		}
	}
	return formats, nil
}

// bullet reports whether numId/level is a bullet list. Unknown numbering
// counts as a bullet list.
func (f numberingFormats) bullet(numID, level string) bool {
	if level == "" {
		level = "0"
	}
	format, ok := f[numID][level]
	return !ok || format == "bullet"
}

// docxWalker tracks the WordprocessingML elements that matter while the
// decoder streams through the document body.
type docxWalker struct {
	formats    numberingFormats
	paragraphs []Paragraph
	current    *Paragraph
	inParaProp bool
	inRunProp  bool
	inText     bool
	runBold    bool

	// list properties of the current paragraph
	numID     string
	numLevel  string
	listStyle string
}

// parseDocumentXML streams word/document.xml. Element names are matched on
// their local part so both the transitional and strict namespaces work.
func parseDocumentXML(r io.Reader, formats numberingFormats) ([]Paragraph, error) {
	decoder := xml.NewDecoder(r)
	walker := &docxWalker{formats: formats}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", docxBodyPath, err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			if err := walker.start(decoder, element); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", docxBodyPath, err)
			}
		case xml.EndElement:
			walker.end(element)
		case xml.CharData:
			if walker.inText && walker.current != nil {
				walker.current.add(string(element), walker.runBold)
			}
		}
	}

	return walker.paragraphs, nil
}

func (w *docxWalker) start(decoder *xml.Decoder, element xml.StartElement) error {
	switch element.Name.Local {
	case "p":
		w.current = &Paragraph{}
		w.numID, w.numLevel, w.listStyle = "", "", ""
	case "pPr":
		w.inParaProp = true
	case "numId":
		if w.inParaProp {
			w.numID = attrValue(element, "val")
		}
	case "ilvl":
		if w.inParaProp {
			w.numLevel = attrValue(element, "val")
		}
	case "pStyle":
		if w.inParaProp {
			w.listStyle = attrValue(element, "val")
		}
	case "r":
		w.runBold = false
	case "rPr":
		w.inRunProp = !w.inParaProp
	case "b", "bCs":
		if w.inRunProp && toggleOn(attrValue(element, "val")) {
			w.runBold = true
		}
	case "rStyle":
		if w.inRunProp && attrValue(element, "val") == "Strong" {
			w.runBold = true
		}
	case "t":
		w.inText = true
	case "tab", "br", "cr":
		// Tab stops inside paragraph properties are layout, not content.
		if !w.inParaProp && w.current != nil {
			w.current.add(" ", w.runBold)
		}
	case "drawing", "pict", "object":
		if w.current != nil {
			w.current.HasImage = true
		}
		return decoder.Skip()
	case "instrText", "del":
		return decoder.Skip()
	}
	return nil
}

func (w *docxWalker) end(element xml.EndElement) {
	switch element.Name.Local {
	case "p":
		if w.current != nil {
			w.current.ListItem = w.listItem()
			w.paragraphs = append(w.paragraphs, *w.current)
			w.current = nil
		}
	case "pPr":
		w.inParaProp = false
	case "rPr":
		w.inRunProp = false
	case "t":
		w.inText = false
	}
}

func attrValue(element xml.StartElement, local string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// toggleOn interprets an OOXML on/off property. A missing value means on.
func toggleOn(value string) bool {
	switch value {
	case "0", "false", "off", "none":
		return false
	default:
		return true
	}
}

// listItem decides whether the current paragraph is a bulleted list item.
// Explicit numbering wins over the paragraph style; numId 0 removes
// numbering.
func (w *docxWalker) listItem() bool {
	switch w.numID {
	case "":
	case "0":
		return false
	default:
		return w.formats.bullet(w.numID, w.numLevel)
	}

	switch w.listStyle {
	case "ListParagraph", "ListBullet", "List":
		return true
	default:
		return false
	}
}
