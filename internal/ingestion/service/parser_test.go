package service

import (
	"bytes"
	"testing"

	"opc_crm_backend/platform/apperr"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSVFoldsHeaders(t *testing.T) {
	data := "\ufeffNombre, CELULAR ,Proyecto,Tipificación,Observación OPC,Personal OPC\n" +
		"Ana Torres,987654321,Oasis,Nuevo,Stand norte,Luis\n" +
		",,,,,\n" +
		"Eva Rios,912345678,Oasis,,,\n"

	records, err := Parse("leads.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, 1, records[0].Row)
	require.Equal(t, "Ana Torres", records[0].Get(colName))
	require.Equal(t, "987654321", records[0].Get(colPhone))
	require.Equal(t, "Nuevo", records[0].Get(colClassification))
	require.Equal(t, "Stand norte", records[0].Get(colOPCNotes))
	require.Equal(t, "Luis", records[0].Get(colPersonnel))

	require.Equal(t, 3, records[1].Row, "blank rows keep their position")
	require.Equal(t, "", records[1].Get(colEmail))
}

func TestParseCSVSemicolons(t *testing.T) {
	data := "nombre;celular;proyecto;email\nAna;987654321;Oasis;ana@example.com\n"

	records, err := Parse("export.CSV", []byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "ana@example.com", records[0].Get(colEmail))
}

func TestParseRejectsMissingColumns(t *testing.T) {
	_, err := Parse("leads.csv", []byte("nombre,email\nAna,ana@example.com\n"))
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Contains(t, err.Error(), "celular, proyecto")
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := Parse("leads.txt", []byte("nombre,celular,proyecto\n"))
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Nombre", "Teléfono", "Proyecto", "Fecha de captación"},
		{"Ana Torres", "987654321", "Oasis", "2026-03-14"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	records, err := Parse("leads.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "987654321", records[0].Get(colPhone))
	require.Equal(t, "2026-03-14", records[0].Get(colCaptureDate))
}

func TestHeaderKey(t *testing.T) {
	tests := map[string]string{
		"Nombre":              "nombre",
		" Fecha de Captación": "fecha_de_captacion",
		"E-mail":              "e_mail",
		"OBSERVACIÓN_OPC":     "observacion_opc",
	}
	for in, want := range tests {
		require.Equal(t, want, headerKey(in), in)
	}
}
