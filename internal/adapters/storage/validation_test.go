package storage

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"leads.csv", ContentTypeCSV, true},
		{"Leads Marzo.XLSX", ContentTypeXLSX, true},
		{"leads.xls", "", false},
		{"leads", "", false},
	}
	for _, tt := range tests {
		got, ok := ContentTypeFor(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ContentTypeFor(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"leads.csv":              "leads.csv",
		"../../etc/passwd":       "passwd",
		`C:\Users\ana\base.xlsx`: "base.xlsx",
		"Campaña Marzo.csv":      "Campaa_Marzo.csv",
		"":                       "upload",
	}
	for in, want := range tests {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}
