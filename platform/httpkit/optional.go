package httpkit

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OptionalUUID distinguishes an absent field from an explicit null in PATCH bodies.
type OptionalUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (o OptionalUUID) IsZero() bool {
	return !o.Set
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return err
	}
	o.Value = &parsed
	return nil
}

// Apply overwrites target when the field was present in the body.
func (o OptionalUUID) Apply(target **uuid.UUID) {
	if o.Set {
		*target = o.Value
	}
}
