package storage

import (
	"path"
	"strings"
)

// Spreadsheet content types accepted for lead imports.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var contentTypeByExt = map[string]string{
	".csv":  ContentTypeCSV,
	".xlsx": ContentTypeXLSX,
}

// ContentTypeFor returns the content type for a supported spreadsheet file name
// and false for anything else.
func ContentTypeFor(fileName string) (string, bool) {
	ct, ok := contentTypeByExt[strings.ToLower(path.Ext(fileName))]
	return ct, ok
}

// SafeName strips directories and characters that do not belong in an object key.
func SafeName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || base == "." || base == "/" {
		return "upload"
	}
	return b.String()
}
