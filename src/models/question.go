package models

// Question is one node of the fixed briefing form. Next is the key of
// the following node; the photo request node is the terminal and has
// Next == "".
type Question struct {
	Key    string
	Prompt string
	Type   AnswerType
	Next   string
}

// Question node keys, in chain order.
const (
	QDepartment       = "department"
	QMeetingDate      = "meeting_date"
	QMaxCategory      = "max_category"
	QSupervisorName   = "supervisor_name"
	QPersonnelNames   = "personnel_names"
	QStartTime        = "start_time"
	QEndTime          = "end_time"
	QOpeningGreeting  = "opening_greeting"
	QHeadcountCheck   = "headcount_check"
	QHealthCheck      = "health_status_check"
	QWarmupExercises  = "warmup_exercises"
	QHealthAnomalies  = "health_anomalies"
	QAttendanceList   = "attendance_list"
	QMaintenanceWork  = "maintenance_work_discussed"
	QOperationWork    = "operation_work_discussed"
	QHighRiskWork     = "high_risk_work_discussed"
	QIncidents        = "incidents_discussed"
	QOtherInformation = "other_information"
	QMirrorCheck      = "mirror_check"
	QHazardPrediction = "hazard_prediction"
	QRegulationRead   = "regulation_reading"
	QHazardExposition = "hazard_exposition"
	QFollowup         = "followup_activities"
	QSafetyActivities = "safety_activities_detail"
	QDayGoal          = "day_goal"
	QObservations     = "observations"
	QRequestPhoto     = "request_photo"
)

// questionChain is the full briefing form in order. It is the single
// source of truth for prompts, answer types and successor links.
var questionChain = []Question{
	// General data
	{QDepartment, "Perfecto. Comenzaremos con los datos generales.\n¿Cuál es el nombre del Departamento?", AnswerFreeText, QMeetingDate},
	{QMeetingDate, "Gracias. ¿Cuál es la fecha de hoy? (formato: DD/MM/AAAA)", AnswerDate, QMaxCategory},
	{QMaxCategory, "¿Cuál es la categoría máxima representada en la reunión?", AnswerFreeText, QSupervisorName},
	{QSupervisorName, "¿Cuál es tu nombre como supervisor?", AnswerFreeText, QPersonnelNames},
	{QPersonnelNames, "Ahora necesito los nombres del personal que participó en la reunión.\nPuedes escribir los nombres separados por comas.", AnswerNameList, QStartTime},
	{QStartTime, "¿A qué hora inició la reunión? (formato: HH:MM)", AnswerTime, QEndTime},
	{QEndTime, "¿A qué hora terminó la reunión? (formato: HH:MM)", AnswerTime, QOpeningGreeting},

	// Opening section
	{QOpeningGreeting, "Excelente. Ahora pasaremos a la sección de INICIO.\n¿Se realizó el saludo de inicio de jornada? (Responde: Sí o No)", AnswerBoolean, QHeadcountCheck},
	{QHeadcountCheck, "¿Se enumeró al personal participante? (Sí/No)", AnswerBoolean, QHealthCheck},
	{QHealthCheck, "¿Se preguntó el estado de salud de los participantes? (Sí/No)", AnswerBoolean, QWarmupExercises},
	{QWarmupExercises, "¿Se realizaron los ejercicios? (Sí/No)", AnswerBoolean, QHealthAnomalies},
	{QHealthAnomalies, "¿Se detectaron anomalías en el estado de salud? (Sí/No)", AnswerBoolean, QAttendanceList},
	{QAttendanceList, "¿Se tomó lista de asistencia? (Sí/No)", AnswerBoolean, QMaintenanceWork},

	// Information section
	{QMaintenanceWork, "Ahora la sección de INFORMACIÓN.\n¿Se comentaron trabajos de mantenimiento relevantes? (Sí/No)", AnswerBoolean, QOperationWork},
	{QOperationWork, "¿Se comentaron trabajos de operación relevantes? (Sí/No)", AnswerBoolean, QHighRiskWork},
	{QHighRiskWork, "¿Se comentaron trabajos con potencial de alto riesgo? (Sí/No)", AnswerBoolean, QIncidents},
	{QIncidents, "¿Se comentaron incidentes o accidentes ocurridos? (Sí/No)", AnswerBoolean, QOtherInformation},
	{QOtherInformation, "¿Hay otra información relevante que quieras agregar?\nSi es así, especifica los temas tratados. Si no, escribe \"No\".", AnswerOptionalText, QMirrorCheck},

	// Safety activities section
	{QMirrorCheck, "Continuamos con ACTIVIDADES DE SEGURIDAD.\n¿Se realizó la revisión espejo? (Sí/No)", AnswerBoolean, QHazardPrediction},
	{QHazardPrediction, "¿Se realizó actividad de predicción de peligro (APP)? (Sí/No)", AnswerBoolean, QRegulationRead},
	{QRegulationRead, "¿Se dio lectura a un artículo del reglamento de seguridad e higiene? (Sí/No)", AnswerBoolean, QHazardExposition},
	{QHazardExposition, "¿Se realizó una exposición de sentir el peligro (justo)? (Sí/No)", AnswerBoolean, QFollowup},
	{QFollowup, "¿Se realizaron actividades relevantes posteriores (inspecciones, campañas, etc.)? (Sí/No)", AnswerBoolean, QSafetyActivities},
	{QSafetyActivities, "Especifica las actividades de seguridad que se realizaron:", AnswerFreeText, QDayGoal},

	// Goal and observations
	{QDayGoal, "¿Cuál es la meta o propósito de la jornada?", AnswerFreeText, QObservations},
	{QObservations, "¿Tienes alguna observación adicional? Si no, escribe \"No\".", AnswerOptionalText, QRequestPhoto},

	// Terminal photo request
	{QRequestPhoto, "Perfecto. Para finalizar, necesito que subas una fotografía como evidencia de la reunión.\nPor favor, envía la imagen.", AnswerPhoto, ""},
}

var questionIndex = func() map[string]Question {
	idx := make(map[string]Question, len(questionChain))
	for _, q := range questionChain {
		idx[q.Key] = q
	}
	return idx
}()

// Chain returns the ordered question nodes of the briefing form.
func Chain() []Question {
	out := make([]Question, len(questionChain))
	copy(out, questionChain)
	return out
}

// LookupQuestion resolves a node by key.
func LookupQuestion(key string) (Question, bool) {
	q, ok := questionIndex[key]
	return q, ok
}

// FirstQuestion returns the entry node of the chain.
func FirstQuestion() Question {
	return questionChain[0]
}
