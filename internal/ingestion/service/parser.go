package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/sanitize"

	"github.com/xuri/excelize/v2"
)

// Column keys after header folding.
const (
	colName           = "nombre"
	colPhone          = "celular"
	colProject        = "proyecto"
	colEmail          = "email"
	colMedium         = "medio"
	colDistrict       = "distrito"
	colLocation       = "ubicacion"
	colClassification = "tipificacion"
	colNotes          = "observacion"
	colOPCNotes       = "observacion_opc"
	colPersonnel      = "personal_opc"
	colCaptureDate    = "fecha_captacion"
)

var requiredColumns = []string{colName, colPhone, colProject}

// headerAliases maps folded header text onto column keys.
var headerAliases = map[string]string{
	"nombre":             colName,
	"nombres":            colName,
	"nombre_completo":    colName,
	"celular":            colPhone,
	"telefono":           colPhone,
	"movil":              colPhone,
	"proyecto":           colProject,
	"email":              colEmail,
	"e_mail":             colEmail,
	"correo":             colEmail,
	"correo_electronico": colEmail,
	"medio":              colMedium,
	"fuente":             colMedium,
	"distrito":           colDistrict,
	"ubicacion":          colLocation,
	"lugar":              colLocation,
	"tipificacion":       colClassification,
	"observacion":        colNotes,
	"observaciones":      colNotes,
	"observacion_opc":    colOPCNotes,
	"observaciones_opc":  colOPCNotes,
	"opc":                colPersonnel,
	"personal_opc":       colPersonnel,
	"captador":           colPersonnel,
	"fecha_captacion":    colCaptureDate,
	"fecha_de_captacion": colCaptureDate,
}

// Record is one non-blank data row. Row counts data rows from 1, blank rows included.
type Record struct {
	Row    int
	Fields map[string]string
}

func (r Record) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Parse reads a csv or xlsx upload into records keyed by column.
func Parse(fileName string, data []byte) ([]Record, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(path.Ext(fileName)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx":
		rows, err = readXLSX(data)
	default:
		return nil, apperr.Validation("file must be .csv or .xlsx")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "could not read file", err)
	}
	return toRecords(rows)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

// detectDelimiter picks ';' when the header line uses it more than ','.
// Spreadsheets saved with a Spanish locale export semicolons.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheetName)
}

func toRecords(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation("file is empty")
	}

	columns := make([]string, len(rows[0]))
	present := map[string]bool{}
	for i, h := range rows[0] {
		if key, ok := headerAliases[headerKey(h)]; ok && !present[key] {
			columns[i] = key
			present[key] = true
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required columns: " + strings.Join(missing, ", "))
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(columns))
		blank := true
		for j, value := range row {
			if j >= len(columns) || columns[j] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				blank = false
			}
			fields[columns[j]] = value
		}
		if blank {
			continue
		}
		records = append(records, Record{Row: i + 1, Fields: fields})
	}
	return records, nil
}

// headerKey folds a header cell to lowercase ascii words joined by underscores.
func headerKey(h string) string {
	folded := sanitize.Fold(strings.TrimPrefix(h, "\ufeff"))
	var b strings.Builder
	underscore := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
