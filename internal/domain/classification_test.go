package domain

import "testing"

func TestParseClassification(t *testing.T) {
	tests := []struct {
		input   string
		want    Classification
		wantErr bool
	}{
		{input: "NUEVO", want: ClassificationNew},
		{input: "nuevo", want: ClassificationNew},
		{input: " Ya Asistió ", want: ClassificationAlreadyAttended},
		{input: "Cita Realizada", want: ClassificationAlreadyAttended},
		{input: "cita - zoom", want: ClassificationAppointmentZoom},
		{input: "No Interesado - Ubicación", want: ClassificationNotInterestedLocation},
		{input: "Seguimiento", want: ClassificationFollowUp},
		{input: "something else", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClassification(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClassification(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClassification(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClassification(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEveryClassificationIsKnown(t *testing.T) {
	for _, c := range Classifications {
		if !c.IsKnown() {
			t.Errorf("%q should be known", c)
		}
	}
	if Classification("nuevo").IsKnown() {
		t.Error("non-canonical spelling should not be known")
	}
	if Classification("").IsKnown() {
		t.Error("empty classification should not be known")
	}
}

func TestClassificationGroups(t *testing.T) {
	tests := []struct {
		c           Classification
		confirmed   bool
		appointment bool
	}{
		{c: ClassificationNew},
		{c: ClassificationFollowUp},
		{c: ClassificationAppointmentScheduled, appointment: true},
		{c: ClassificationAppointmentToConfirm, appointment: true},
		{c: ClassificationAppointmentConfirmed, confirmed: true, appointment: true},
		{c: ClassificationAppointmentShowroom, confirmed: true, appointment: true},
		{c: ClassificationAlreadyAttended, appointment: true},
		{c: ClassificationDiscarded},
	}

	for _, tt := range tests {
		if got := tt.c.IsConfirmedAppointment(); got != tt.confirmed {
			t.Errorf("%q.IsConfirmedAppointment() = %v, want %v", tt.c, got, tt.confirmed)
		}
		if got := tt.c.IsAppointmentStage(); got != tt.appointment {
			t.Errorf("%q.IsAppointmentStage() = %v, want %v", tt.c, got, tt.appointment)
		}
	}
}
