package service

import (
	"testing"
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestChannelCode(t *testing.T) {
	tests := []struct {
		medium *string
		want   string
	}{
		{medium: strPtr("OPC"), want: "campo_opc"},
		{medium: strPtr("  campo (centros comerciales) "), want: "campo_opc"},
		{medium: strPtr("Redes Sociales (Facebook)"), want: "redes_facebook"},
		{medium: strPtr("WhatsApp"), want: "redes_facebook"},
		{medium: strPtr("Instagram"), want: "redes_instagram"},
		{medium: strPtr("Referidos"), want: "referido"},
		{medium: strPtr("WEB"), want: "web"},
		{medium: strPtr("Volante"), want: "otro"},
		{medium: nil, want: "otro"},
	}
	for _, tt := range tests {
		if got := ChannelCode(tt.medium); got != tt.want {
			t.Errorf("ChannelCode(%v) = %q, want %q", domain.StringValue(tt.medium), got, tt.want)
		}
	}
}

func TestModality(t *testing.T) {
	tests := map[string]string{
		"Reunion por ZOOM":   ModalityVirtual,
		"Sala virtual":       ModalityVirtual,
		"Oficina San Isidro": ModalityInPerson,
		"":                   ModalityInPerson,
	}
	for place, want := range tests {
		if got := Modality(place); got != want {
			t.Errorf("Modality(%q) = %q, want %q", place, got, want)
		}
	}
}

func TestBuildPayloadFallsBackToDefaultProject(t *testing.T) {
	lead := domain.Lead{Name: "Ana", Phone: "+51987650012", Email: strPtr("ana@example.com")}
	appt := domain.Appointment{
		ID: uuid.New(), Place: "Zoom", Notes: strPtr("trae DNI"),
		ScheduledAt: time.Date(2026, 5, 10, 16, 0, 0, 0, time.UTC),
	}

	p := BuildPayload(lead, appt, nil, "OASIS 2 (AUCALLAMA)")

	if p.Project != "OASIS 2 (AUCALLAMA)" {
		t.Errorf("project = %q", p.Project)
	}
	if p.Customer.DocumentNumber != "TEMP-0012" {
		t.Errorf("document = %q", p.Customer.DocumentNumber)
	}
	if p.Customer.Email == nil || *p.Customer.Email != "ana@example.com" {
		t.Errorf("email = %v", p.Customer.Email)
	}
	if p.VisitedAt != "2026-05-10T16:00:00Z" {
		t.Errorf("visitedAt = %q", p.VisitedAt)
	}
	if p.Modality != ModalityVirtual || p.CaptureAdvisor != "" {
		t.Errorf("modality = %q advisor = %q", p.Modality, p.CaptureAdvisor)
	}
	if p.Outcome != "interesado_seguimiento" {
		t.Errorf("outcome = %q", p.Outcome)
	}
}
