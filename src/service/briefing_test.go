package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/repository"
)

type fakeBriefingReader struct {
	briefing  *models.Briefing
	listed    []*models.Briefing
	lastLimit int
}

func (f *fakeBriefingReader) GetByID(_ context.Context, id int64) (*models.Briefing, error) {
	if f.briefing == nil || f.briefing.ID != id {
		return nil, models.ErrBriefingNotFound
	}
	return f.briefing, nil
}

func (f *fakeBriefingReader) ListByUser(_ context.Context, _ int64, limit int) ([]*models.Briefing, error) {
	f.lastLimit = limit
	return f.listed, nil
}

func (f *fakeBriefingReader) Statistics(_ context.Context, _, _ string) (int, []repository.CountByGroup, []repository.CountByGroup, error) {
	return 3,
		[]repository.CountByGroup{{Group: "Distribución", Count: 2}, {Group: "Transmisión", Count: 1}},
		[]repository.CountByGroup{{Group: "2025-03-15", Count: 3}},
		nil
}

func (f *fakeBriefingReader) ExportCSV(_ context.Context, w io.Writer, _, _ string) (int, error) {
	_, err := w.Write([]byte("id,department\n1,Distribución\n"))
	return 1, err
}

func sampleBriefing() *models.Briefing {
	return &models.Briefing{
		ID:             7,
		Department:     "Distribución Zona Norte",
		MeetingDate:    "2025-03-15",
		MaxCategory:    "Técnico Especialista",
		SupervisorName: "Juan Pérez",
		PersonnelNames: []string{"Ana Gómez", "Pedro Ramírez"},
		StartTime:      "08:00",
		EndTime:        "08:30",

		OpeningGreeting:   true,
		HeadcountCheck:    true,
		HealthStatusCheck: true,
		WarmupExercises:   false,
		HealthAnomalies:   false,
		AttendanceList:    true,

		MaintenanceWorkDiscussed: true,
		OperationWorkDiscussed:   false,
		HighRiskWorkDiscussed:    true,
		IncidentsDiscussed:       false,
		OtherInformation:         "",

		MirrorCheck:            true,
		HazardPrediction:       true,
		RegulationReading:      false,
		HazardExposition:       false,
		FollowupActivities:     true,
		SafetyActivitiesDetail: "Inspección de EPP",

		DayGoal:      "Cero accidentes",
		Observations: "",

		PhotoRefs:      []string{"2025-03/abc123.jpg"},
		RegisteredAt:   time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC),
		TelegramUserID: 42,
	}
}

func testBriefingService(reader BriefingReader) *BriefingService {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewBriefingService(reader, log)
}

func TestTextReport_RendersAllSections(t *testing.T) {
	svc := testBriefingService(&fakeBriefingReader{briefing: sampleBriefing()})

	report, err := svc.TextReport(context.Background(), 7)
	require.NoError(t, err)

	assert.Contains(t, report, "REUNIÓN DE INICIO DE JORNADA")
	assert.Contains(t, report, "🏢 Departamento: Distribución Zona Norte")
	assert.Contains(t, report, "👥 Personal: Ana Gómez, Pedro Ramírez")
	assert.Contains(t, report, "🕐 Horario: 08:00 - 08:30")
	assert.Contains(t, report, "• Saludo de inicio de jornada: ✅ Sí")
	assert.Contains(t, report, "• Ejercicios: ❌ No")
	assert.Contains(t, report, "• Otra información: Ninguna")
	assert.Contains(t, report, "🎯 Meta de la jornada: Cero accidentes")
	assert.Contains(t, report, "📷 Evidencias: 1")
	assert.Contains(t, report, "🕒 Registrado: 15/03/2025 09:30")
}

func TestTextReport_NotFound(t *testing.T) {
	svc := testBriefingService(&fakeBriefingReader{})

	_, err := svc.TextReport(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrBriefingNotFound)
}

func TestListByUser_ClampsLimit(t *testing.T) {
	reader := &fakeBriefingReader{}
	svc := testBriefingService(reader)

	_, err := svc.ListByUser(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, reader.lastLimit)

	_, err = svc.ListByUser(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 20, reader.lastLimit)

	_, err = svc.ListByUser(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, reader.lastLimit)
}

func TestStatistics_WrapsReaderCounts(t *testing.T) {
	svc := testBriefingService(&fakeBriefingReader{})

	stats, err := svc.Statistics(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	require.Len(t, stats.ByDepartment, 2)
	assert.Equal(t, "Distribución", stats.ByDepartment[0].Group)
	require.Len(t, stats.ByDate, 1)
}
