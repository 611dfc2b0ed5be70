package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "  Juan   Pérez ", want: "Juan Pérez"},
		{input: "<b>Sala</b> Miraflores", want: "Sala Miraflores"},
		{input: "&lt;script&gt;alert(1)&lt;/script&gt;Zoom", want: "alert(1)Zoom"},
	}
	for _, tt := range tests {
		if got := Text(tt.input); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Tipificación", want: "tipificacion"},
		{input: "  YA  ASISTIÓ ", want: "ya asistio"},
		{input: "Teléfono", want: "telefono"},
	}
	for _, tt := range tests {
		if got := Fold(tt.input); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOptionalText(t *testing.T) {
	blank := "   "
	if got := OptionalText(&blank); got != nil {
		t.Errorf("OptionalText(blank) = %q, want nil", *got)
	}
	if got := OptionalText(nil); got != nil {
		t.Errorf("OptionalText(nil) = %q, want nil", *got)
	}
	value := " Sala  Lima "
	if got := OptionalText(&value); got == nil || *got != "Sala Lima" {
		t.Errorf("OptionalText(%q) = %v", value, got)
	}
}
