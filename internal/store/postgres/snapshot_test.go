package postgres

import (
	"testing"
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

func TestSnapshotDocKeepsOptionalFields(t *testing.T) {
	email := "ana@example.com"
	class := domain.ClassificationInterested
	captured := uuid.New()
	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	raw, err := encodeSnapshot(domain.LeadSnapshot{
		Name: "Ana", Phone: "+51987654321", Email: &email,
		Classification: &class, CapturedByID: &captured, CaptureDate: &date,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Ana" || got.Phone != "+51987654321" {
		t.Errorf("identity fields = %q %q", got.Name, got.Phone)
	}
	if got.Email == nil || *got.Email != email {
		t.Errorf("email = %v", got.Email)
	}
	if got.Classification == nil || *got.Classification != class {
		t.Errorf("classification = %v", got.Classification)
	}
	if got.CapturedByID == nil || *got.CapturedByID != captured {
		t.Errorf("capturedBy = %v", got.CapturedByID)
	}
	if got.CaptureDate == nil || !got.CaptureDate.Equal(date) {
		t.Errorf("captureDate = %v", got.CaptureDate)
	}
	if got.Project != nil || got.Notes != nil {
		t.Errorf("absent fields decoded as non-nil")
	}
}
