package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/repository"
)

// BriefingStats is the aggregate view over registered briefings.
type BriefingStats struct {
	Total        int                       `json:"total"`
	ByDepartment []repository.CountByGroup `json:"by_department"`
	ByDate       []repository.CountByGroup `json:"by_date"`
}

// BriefingService is the read side over registered briefings.
type BriefingService struct {
	reader BriefingReader
	log    *logrus.Logger
}

// NewBriefingService builds the read-side service.
func NewBriefingService(reader BriefingReader, log *logrus.Logger) *BriefingService {
	return &BriefingService{reader: reader, log: log}
}

// GetByID fetches one briefing.
func (s *BriefingService) GetByID(ctx context.Context, id int64) (*models.Briefing, error) {
	return s.reader.GetByID(ctx, id)
}

// ListByUser fetches the most recent briefings registered by a user.
func (s *BriefingService) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Briefing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reader.ListByUser(ctx, userID, limit)
}

// Statistics aggregates briefing counts, optionally bounded by an
// inclusive YYYY-MM-DD date range.
func (s *BriefingService) Statistics(ctx context.Context, from, to string) (*BriefingStats, error) {
	total, byDepartment, byDate, err := s.reader.Statistics(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &BriefingStats{Total: total, ByDepartment: byDepartment, ByDate: byDate}, nil
}

// ExportCSV streams briefings in the date range as CSV and returns the
// row count.
func (s *BriefingService) ExportCSV(ctx context.Context, w io.Writer, from, to string) (int, error) {
	return s.reader.ExportCSV(ctx, w, from, to)
}

// TextReport renders one briefing as the plain-text minute the crews
// archive.
func (s *BriefingService) TextReport(ctx context.Context, id int64) (string, error) {
	b, err := s.reader.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return renderTextReport(b), nil
}

func renderTextReport(b *models.Briefing) string {
	check := func(v bool) string {
		if v {
			return "✅ Sí"
		}
		return "❌ No"
	}
	orNone := func(s string) string {
		if s == "" {
			return "Ninguna"
		}
		return s
	}

	var out strings.Builder
	out.WriteString("📋 REUNIÓN DE INICIO DE JORNADA\n")
	out.WriteString("================================\n\n")

	fmt.Fprintf(&out, "🆔 Registro: %d\n", b.ID)
	fmt.Fprintf(&out, "🏢 Departamento: %s\n", b.Department)
	fmt.Fprintf(&out, "📅 Fecha: %s\n", b.MeetingDate)
	fmt.Fprintf(&out, "👷 Categoría máxima: %s\n", b.MaxCategory)
	fmt.Fprintf(&out, "👤 Supervisor: %s\n", b.SupervisorName)
	fmt.Fprintf(&out, "👥 Personal: %s\n", strings.Join(b.PersonnelNames, ", "))
	fmt.Fprintf(&out, "🕐 Horario: %s - %s\n\n", b.StartTime, b.EndTime)

	out.WriteString("INICIO\n")
	fmt.Fprintf(&out, "• Saludo de inicio de jornada: %s\n", check(b.OpeningGreeting))
	fmt.Fprintf(&out, "• Enumeración del personal: %s\n", check(b.HeadcountCheck))
	fmt.Fprintf(&out, "• Estado de salud: %s\n", check(b.HealthStatusCheck))
	fmt.Fprintf(&out, "• Ejercicios: %s\n", check(b.WarmupExercises))
	fmt.Fprintf(&out, "• Anomalías de salud: %s\n", check(b.HealthAnomalies))
	fmt.Fprintf(&out, "• Lista de asistencia: %s\n\n", check(b.AttendanceList))

	out.WriteString("INFORMACIÓN\n")
	fmt.Fprintf(&out, "• Trabajos de mantenimiento: %s\n", check(b.MaintenanceWorkDiscussed))
	fmt.Fprintf(&out, "• Trabajos de operación: %s\n", check(b.OperationWorkDiscussed))
	fmt.Fprintf(&out, "• Trabajos de alto riesgo: %s\n", check(b.HighRiskWorkDiscussed))
	fmt.Fprintf(&out, "• Incidentes o accidentes: %s\n", check(b.IncidentsDiscussed))
	fmt.Fprintf(&out, "• Otra información: %s\n\n", orNone(b.OtherInformation))

	out.WriteString("ACTIVIDADES DE SEGURIDAD\n")
	fmt.Fprintf(&out, "• Revisión espejo: %s\n", check(b.MirrorCheck))
	fmt.Fprintf(&out, "• Predicción de peligro (APP): %s\n", check(b.HazardPrediction))
	fmt.Fprintf(&out, "• Lectura del reglamento: %s\n", check(b.RegulationReading))
	fmt.Fprintf(&out, "• Exposición sentir el peligro: %s\n", check(b.HazardExposition))
	fmt.Fprintf(&out, "• Actividades posteriores: %s\n", check(b.FollowupActivities))
	fmt.Fprintf(&out, "• Detalle: %s\n\n", orNone(b.SafetyActivitiesDetail))

	fmt.Fprintf(&out, "🎯 Meta de la jornada: %s\n", b.DayGoal)
	fmt.Fprintf(&out, "📝 Observaciones: %s\n", orNone(b.Observations))
	fmt.Fprintf(&out, "📷 Evidencias: %d\n", len(b.PhotoRefs))
	fmt.Fprintf(&out, "🕒 Registrado: %s\n", b.RegisteredAt.Format("02/01/2006 15:04"))

	return out.String()
}
