package ecfr

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SectionText is one regulatory section extracted from title XML, tagged
// with its position in the CFR hierarchy.
type SectionText struct {
	Title   int
	Chapter string
	Section string
	Text    string
}

// ChapterText is the flattened text of one whole chapter, used as the
// fallback granularity when a document cannot be decomposed into sections.
type ChapterText struct {
	Title   int
	Chapter string
	Text    string
}

// The eCFR full-title XML nests DIV1-DIV9 elements; TYPE attributes carry
// the hierarchy level. The parser streams tokens instead of unmarshalling
// the whole document so a 100MB title does not triple in memory.
const (
	divTypeTitle   = "TITLE"
	divTypeChapter = "CHAPTER"
	divTypeSection = "SECTION"
)

// ParseSections walks a full-title XML document and returns one SectionText
// per DIV8 section, tagged with the enclosing title and chapter identifiers.
func ParseSections(content []byte) ([]SectionText, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		sections []SectionText
		title    int
		chapter  string

		capturing    bool
		captureDepth int
		sectionID    string
		buf          strings.Builder
		depth        int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse title xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			divType := attr(t, "TYPE")
			switch divType {
			case divTypeTitle:
				if n, err := strconv.Atoi(strings.TrimSpace(attr(t, "N"))); err == nil {
					title = n
				}
			case divTypeChapter:
				chapter = attr(t, "N")
			case divTypeSection:
				if !capturing {
					capturing = true
					captureDepth = depth
					sectionID = attr(t, "N")
					buf.Reset()
				}
			}
		case xml.EndElement:
			if capturing && depth == captureDepth {
				text := flatten(buf.String())
				if text != "" {
					sections = append(sections, SectionText{
						Title:   title,
						Chapter: chapter,
						Section: sectionID,
						Text:    text,
					})
				}
				capturing = false
			}
			depth--
		case xml.CharData:
			if capturing {
				buf.Write(t)
				buf.WriteByte(' ')
			}
		}
	}

	return sections, nil
}

// ChapterTexts extracts one flattened text blob per chapter. The ingestor
// falls back to this coarser granularity when ParseSections finds nothing;
// one record per chapter beats dropping the title entirely.
func ChapterTexts(content []byte) ([]ChapterText, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		chapters []ChapterText
		title    int

		capturing    bool
		captureDepth int
		chapterID    string
		buf          strings.Builder
		depth        int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse title xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch attr(t, "TYPE") {
			case divTypeTitle:
				if n, err := strconv.Atoi(strings.TrimSpace(attr(t, "N"))); err == nil {
					title = n
				}
			case divTypeChapter:
				if !capturing {
					capturing = true
					captureDepth = depth
					chapterID = attr(t, "N")
					buf.Reset()
				}
			}
		case xml.EndElement:
			if capturing && depth == captureDepth {
				text := flatten(buf.String())
				if text != "" {
					chapters = append(chapters, ChapterText{
						Title:   title,
						Chapter: chapterID,
						Text:    text,
					})
				}
				capturing = false
			}
			depth--
		case xml.CharData:
			if capturing {
				buf.Write(t)
				buf.WriteByte(' ')
			}
		}
	}

	return chapters, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// flatten collapses runs of whitespace so downstream tokenization sees the
// same text regardless of XML indentation.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
