package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"opc_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// PersonnelRole distinguishes field capture staff from their supervisors.
type PersonnelRole string

const (
	PersonnelField      PersonnelRole = "field"
	PersonnelSupervisor PersonnelRole = "supervisor"
)

func ParsePersonnelRole(value string) (PersonnelRole, error) {
	switch sanitize.Fold(value) {
	case "field", "opc", "campo":
		return PersonnelField, nil
	case "supervisor":
		return PersonnelSupervisor, nil
	}
	return "", fmt.Errorf("unknown personnel role %q", value)
}

// OPCPersonnel is field staff that originates leads.
type OPCPersonnel struct {
	ID             uuid.UUID
	Name           string
	Role           PersonnelRole
	SupervisorID   *uuid.UUID
	UserID         *uuid.UUID
	WeeklySchedule json.RawMessage
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var scheduleDays = map[string]bool{
	"lunes": true, "martes": true, "miercoles": true, "jueves": true,
	"viernes": true, "sabado": true, "domingo": true,
}

// ValidateWeeklySchedule checks that raw is empty or a JSON object keyed by weekday.
// Values are opaque.
func ValidateWeeklySchedule(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return fmt.Errorf("weekly schedule must be an object keyed by weekday: %w", err)
	}
	for day := range days {
		if !scheduleDays[sanitize.Fold(day)] {
			return fmt.Errorf("unknown weekday %q in weekly schedule", day)
		}
	}
	return nil
}
