// Package parser reads bar charts and their data out of xlsx packages.
package parser

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

// openPackage is one xlsx package opened as a zip archive.
type openPackage struct {
	r *zip.Reader
}

// sheetParts maps each worksheet name to its part path inside the package.
func (p openPackage) sheetParts() map[string]string {
	workbookXML, err := readZipFile(p.r, "xl/workbook.xml")
	if err != nil || workbookXML == nil {
		return nil
	}
	sheetsInfo := parseWorkbookSheets(workbookXML)
	if len(sheetsInfo) == 0 {
		return nil
	}
	wbRelsXML, err := readZipFile(p.r, relsPathFor("xl/workbook.xml"))
	if err != nil || wbRelsXML == nil {
		return nil
	}
	return parseWorkbookRels(wbRelsXML, sheetsInfo)
}

// drawingPart returns the drawing part of a worksheet, or "" when the sheet
// has no drawing.
func (p openPackage) drawingPart(sheetPath string) string {
	relsXML, err := readZipFile(p.r, relsPathFor(sheetPath))
	if err != nil || relsXML == nil {
		return ""
	}
	target := findRelationship(relsXML, "drawing")
	if target == "" {
		return ""
	}
	return resolveRelativePath(target, path.Dir(sheetPath))
}

// relsPathFor returns the relationships part of a package part:
// xl/worksheets/sheet1.xml has xl/worksheets/_rels/sheet1.xml.rels.
func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

func readElementText(decoder *xml.Decoder) (string, error) {
	var text string
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text += string(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text, nil
}

// resolveRelativePath resolves a relationship target against the directory
// of the part that owns the relationship. Targets starting with "/" are
// relative to the package root.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(baseDir, target)
}

func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string) // rId -> sheet name
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			name, rID := attrValue(se, "name"), attrValue(se, "id")
			if name != "" && rID != "" {
				result[rID] = name
			}
		}
	}

	return result
}

func parseWorkbookRels(data []byte, sheetsInfo map[string]string) map[string]string {
	result := make(map[string]string) // sheet name -> part path
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			rID, target := attrValue(se, "Id"), attrValue(se, "Target")
			if sheetName, ok := sheetsInfo[rID]; ok && strings.Contains(strings.ToLower(target), "worksheet") {
				result[sheetName] = resolveRelativePath(target, "xl")
			}
		}
	}

	return result
}

// parseRelationships returns the targets of all relationships whose type
// contains kind, keyed by relationship id.
func parseRelationships(data []byte, kind string) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			relType := attrValue(se, "Type")
			if strings.HasSuffix(strings.ToLower(relType), "/"+kind) {
				result[attrValue(se, "Id")] = attrValue(se, "Target")
			}
		}
	}

	return result
}

func findRelationship(data []byte, kind string) string {
	for _, target := range parseRelationships(data, kind) {
		return target
	}
	return ""
}
