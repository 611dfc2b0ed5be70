package service

import (
	"fmt"
	"strings"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/phone"
)

// Field names follow the sales system's contract.
type VisitCustomer struct {
	FullName       string  `json:"nombres_completos_razon_social"`
	DocumentType   string  `json:"tipo_documento"`
	DocumentNumber string  `json:"numero_documento"`
	Phone          string  `json:"telefono_principal"`
	Email          *string `json:"email_principal"`
	Address        string  `json:"direccion"`
	District       string  `json:"distrito"`
}

type VisitPayload struct {
	CorrelationID  string        `json:"id_presencia_crm"`
	Customer       VisitCustomer `json:"cliente"`
	VisitedAt      string        `json:"fecha_hora_presencia"`
	Project        string        `json:"proyecto_interes"`
	CaptureAdvisor string        `json:"asesor_captacion_opc"`
	Channel        string        `json:"medio_captacion"`
	Modality       string        `json:"modalidad"`
	Status         string        `json:"status_presencia"`
	Outcome        string        `json:"resultado_interaccion"`
	Notes          string        `json:"observaciones"`
}

const (
	ModalityVirtual    = "virtual"
	ModalityInPerson   = "presencial"
	ChannelOther       = "otro"
	visitStatusDone    = "realizada"
	visitOutcomeFollow = "interesado_seguimiento"
	documentTypeDNI    = "DNI"
)

// channelCodes is keyed by the lowercased medium.
var channelCodes = map[string]string{
	"opc":                         "campo_opc",
	"campo (centros comerciales)": "campo_opc",
	"redes sociales (facebook)":   "redes_facebook",
	"facebook":                    "redes_facebook",
	"redes sociales (whatsapp)":   "redes_facebook",
	"whatsapp":                    "redes_facebook",
	"redes sociales (instagram)":  "redes_instagram",
	"instagram":                   "redes_instagram",
	"referidos":                   "referido",
	"web":                         "web",
}

// ChannelCode maps a lead's capture medium onto the sales system's channel code.
func ChannelCode(medium *string) string {
	if medium == nil {
		return ChannelOther
	}
	if code, ok := channelCodes[strings.ToLower(strings.TrimSpace(*medium))]; ok {
		return code
	}
	return ChannelOther
}

// Modality is virtual when the place mentions zoom or virtual.
func Modality(place string) string {
	lower := strings.ToLower(place)
	if strings.Contains(lower, "zoom") || strings.Contains(lower, "virtual") {
		return ModalityVirtual
	}
	return ModalityInPerson
}

// BuildPayload assembles the notification for a completed visit. capturer may be nil.
func BuildPayload(lead domain.Lead, appt domain.Appointment, capturer *domain.OPCPersonnel, defaultProject string) VisitPayload {
	project := strings.TrimSpace(domain.StringValue(lead.Project))
	if project == "" {
		project = defaultProject
	}
	district := domain.StringValue(lead.District)

	var advisor string
	if capturer != nil {
		advisor = capturer.Name
	}

	var email *string
	if e := strings.TrimSpace(domain.StringValue(lead.Email)); e != "" {
		email = &e
	}

	return VisitPayload{
		CorrelationID: appt.CorrelationID(),
		Customer: VisitCustomer{
			FullName:       lead.Name,
			DocumentType:   documentTypeDNI,
			DocumentNumber: "TEMP-" + phone.LastDigits(lead.Phone, 4),
			Phone:          lead.Phone,
			Email:          email,
			Address:        district,
			District:       district,
		},
		VisitedAt:      appt.ScheduledAt.Format(time.RFC3339),
		Project:        project,
		CaptureAdvisor: advisor,
		Channel:        ChannelCode(lead.Medium),
		Modality:       Modality(appt.Place),
		Status:         visitStatusDone,
		Outcome:        visitOutcomeFollow,
		Notes: fmt.Sprintf("Presencia desde CRM. Lugar: %s. Observaciones: %s - NOTA: DNI temporal, editar manualmente",
			appt.Place, domain.StringValue(appt.Notes)),
	}
}
