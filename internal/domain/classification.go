package domain

import (
	"fmt"

	"opc_crm_backend/platform/sanitize"
)

// Classification is a lead's disposition (tipificación). The stored values are
// the labels used in the call-center sheets, so imports round-trip unchanged.
type Classification string

const (
	ClassificationNew                    Classification = "NUEVO"
	ClassificationContacted              Classification = "CONTACTADO"
	ClassificationInterested             Classification = "INTERESADO"
	ClassificationNoAnswer               Classification = "NO CONTESTA"
	ClassificationPhoneOff               Classification = "APAGADO"
	ClassificationOutOfService           Classification = "FUERA DE SERVICIO"
	ClassificationWrongNumber            Classification = "NUMERO EQUIVOCADO"
	ClassificationFalseData              Classification = "DATOS FALSOS"
	ClassificationCallBack               Classification = "VOLVER A LLAMAR"
	ClassificationInfoSent               Classification = "INFORMACION ENVIADA"
	ClassificationFollowUp               Classification = "SEGUIMIENTO"
	ClassificationNotInterestedProject   Classification = "NO INTERESADO - PROYECTO"
	ClassificationNotInterestedPrice     Classification = "NO INTERESADO - PRECIO"
	ClassificationNotInterestedLocation  Classification = "NO INTERESADO - UBICACION"
	ClassificationNotInterestedFinancing Classification = "NO INTERESADO - FINANCIAMIENTO"
	ClassificationBoughtElsewhere        Classification = "COMPRO EN OTRO LUGAR"
	ClassificationAppointmentScheduled   Classification = "CITA AGENDADA"
	ClassificationAppointmentToConfirm   Classification = "CITA - POR CONFIRMAR"
	ClassificationAppointmentConfirmed   Classification = "CITA CONFIRMADA"
	ClassificationAppointmentZoom        Classification = "CITA - ZOOM"
	ClassificationAppointmentShowroom    Classification = "CITA - SALA"
	ClassificationAppointmentProject     Classification = "CITA - PROYECTO"
	ClassificationAppointmentHomeVisit   Classification = "CITA - HXH"
	ClassificationAlreadyAttended        Classification = "YA ASISTIO"
	ClassificationDuplicate              Classification = "DUPLICADO"
	ClassificationDisqualified           Classification = "NO CALIFICA"
	ClassificationDiscarded              Classification = "DESCARTADO"
)

// Classifications lists every value in display order.
var Classifications = []Classification{
	ClassificationNew,
	ClassificationContacted,
	ClassificationInterested,
	ClassificationNoAnswer,
	ClassificationPhoneOff,
	ClassificationOutOfService,
	ClassificationWrongNumber,
	ClassificationFalseData,
	ClassificationCallBack,
	ClassificationInfoSent,
	ClassificationFollowUp,
	ClassificationNotInterestedProject,
	ClassificationNotInterestedPrice,
	ClassificationNotInterestedLocation,
	ClassificationNotInterestedFinancing,
	ClassificationBoughtElsewhere,
	ClassificationAppointmentScheduled,
	ClassificationAppointmentToConfirm,
	ClassificationAppointmentConfirmed,
	ClassificationAppointmentZoom,
	ClassificationAppointmentShowroom,
	ClassificationAppointmentProject,
	ClassificationAppointmentHomeVisit,
	ClassificationAlreadyAttended,
	ClassificationDuplicate,
	ClassificationDisqualified,
	ClassificationDiscarded,
}

var confirmedClassifications = map[Classification]bool{
	ClassificationAppointmentConfirmed: true,
	ClassificationAppointmentZoom:      true,
	ClassificationAppointmentShowroom:  true,
	ClassificationAppointmentProject:   true,
	ClassificationAppointmentHomeVisit: true,
}

var appointmentClassifications = map[Classification]bool{
	ClassificationAppointmentScheduled: true,
	ClassificationAppointmentToConfirm: true,
	ClassificationAppointmentConfirmed: true,
	ClassificationAppointmentZoom:      true,
	ClassificationAppointmentShowroom:  true,
	ClassificationAppointmentProject:   true,
	ClassificationAppointmentHomeVisit: true,
	ClassificationAlreadyAttended:      true,
}

// Spellings seen in older sheets and the web client, keyed by folded text.
var classificationAliases = map[string]Classification{
	"new":                 ClassificationNew,
	"cita realizada":      ClassificationAlreadyAttended,
	"asistio":             ClassificationAlreadyAttended,
	"cita - confirmada":   ClassificationAppointmentConfirmed,
	"cita - agendada":     ClassificationAppointmentScheduled,
	"cita - hxh":          ClassificationAppointmentHomeVisit,
	"cita - casa x casa":  ClassificationAppointmentHomeVisit,
	"no contactado":       ClassificationNoAnswer,
	"descartado - otro":   ClassificationDiscarded,
	"duplicado - sistema": ClassificationDuplicate,
}

var classificationByFold = func() map[string]Classification {
	out := make(map[string]Classification, len(Classifications)+len(classificationAliases))
	for _, c := range Classifications {
		out[sanitize.Fold(string(c))] = c
	}
	for alias, c := range classificationAliases {
		out[alias] = c
	}
	return out
}()

// ParseClassification accepts any casing, accents and known aliases.
func ParseClassification(value string) (Classification, error) {
	if c, ok := classificationByFold[sanitize.Fold(value)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown classification %q", value)
}

// IsKnown reports whether c is exactly one of the enumerated values.
func (c Classification) IsKnown() bool {
	return classificationByFold[sanitize.Fold(string(c))] == c && c != ""
}

// IsConfirmedAppointment reports whether the lead has a confirmed visit on record.
func (c Classification) IsConfirmedAppointment() bool {
	return confirmedClassifications[c]
}

// IsAppointmentStage covers every scheduled, confirmed or attended state.
func (c Classification) IsAppointmentStage() bool {
	return appointmentClassifications[c]
}

func (c Classification) IsAttended() bool {
	return c == ClassificationAlreadyAttended
}

func (c Classification) IsDiscarded() bool {
	return c == ClassificationDiscarded
}
