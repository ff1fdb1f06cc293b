package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
)

// --- In-memory fakes ---

type fakeSessionStore struct {
	sessions   map[int64]*models.Session
	conflictOn bool
	getErr     error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*models.Session)}
}

func copySession(s *models.Session) *models.Session {
	out := *s
	out.Answers = make(map[string]models.Value, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.MediaRefs = append([]string(nil), s.MediaRefs...)
	return &out
}

func (f *fakeSessionStore) Get(_ context.Context, userID int64) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[userID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return copySession(s), nil
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.Session) error {
	if _, ok := f.sessions[session.UserID]; ok {
		return models.ErrSessionExists
	}
	session.Revision = 1
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	f.sessions[session.UserID] = copySession(session)
	return nil
}

func (f *fakeSessionStore) Update(_ context.Context, session *models.Session) error {
	if f.conflictOn {
		return models.ErrSessionConflict
	}
	if _, ok := f.sessions[session.UserID]; !ok {
		return models.ErrSessionNotFound
	}
	session.Revision++
	session.UpdatedAt = time.Now()
	f.sessions[session.UserID] = copySession(session)
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, userID int64) error {
	delete(f.sessions, userID)
	return nil
}

type fakeBriefingStore struct {
	inserted  []*models.Briefing
	failTimes int
	nextID    int64
}

func (f *fakeBriefingStore) Insert(_ context.Context, b *models.Briefing) (int64, error) {
	if f.failTimes > 0 {
		f.failTimes--
		return 0, errors.New("storage unavailable")
	}
	f.nextID++
	b.ID = f.nextID
	b.RegisteredAt = time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	f.inserted = append(f.inserted, b)
	return b.ID, nil
}

type fakePhotoStore struct {
	refs    int
	err     error
	payload []byte
}

func (f *fakePhotoStore) Store(payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.refs++
	f.payload = payload
	return fmt.Sprintf("2025-03/photo_%d.jpg", f.refs), nil
}

type fakePublisher struct {
	exchanges []string
	bodies    [][]byte
	err       error
}

func (f *fakePublisher) Publish(exchange string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.exchanges = append(f.exchanges, exchange)
	f.bodies = append(f.bodies, body)
	return nil
}

// --- Harness ---

type botHarness struct {
	svc       *ConversationService
	sessions  *fakeSessionStore
	briefings *fakeBriefingStore
	photos    *fakePhotoStore
	publisher *fakePublisher
}

func newBotHarness() *botHarness {
	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := newFakeSessionStore()
	briefings := &fakeBriefingStore{}
	photos := &fakePhotoStore{}
	publisher := &fakePublisher{}
	finalizer := NewFinalizer(briefings, publisher, "briefing.registered", log)

	return &botHarness{
		svc:       NewConversationService(sessions, photos, finalizer, log),
		sessions:  sessions,
		briefings: briefings,
		photos:    photos,
		publisher: publisher,
	}
}

func answerFor(q models.Question) string {
	switch q.Key {
	case models.QMeetingDate:
		return "15/03/2025"
	case models.QStartTime:
		return "08:00"
	case models.QEndTime:
		return "08:30"
	case models.QPersonnelNames:
		return "Juan Pérez, Ana Gómez"
	}
	switch q.Type {
	case models.AnswerBoolean:
		return "Sí"
	case models.AnswerOptionalText:
		return "No"
	default:
		return "Distribución Zona Norte"
	}
}

// driveToPhoto starts a dialog and answers every question up to the
// photo request.
func driveToPhoto(t *testing.T, h *botHarness, userID int64) {
	t.Helper()
	ctx := context.Background()

	reply, err := h.svc.Start(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAwaitingStartConfirmation, reply.Status)

	reply, err = h.svc.HandleText(ctx, userID, "Sí")
	require.NoError(t, err)
	require.Equal(t, models.StatusAwaitingAnswer, reply.Status)

	q := models.FirstQuestion()
	for q.Type != models.AnswerPhoto {
		reply, err = h.svc.HandleText(ctx, userID, answerFor(q))
		require.NoError(t, err, "answering %q failed", q.Key)

		next, ok := models.LookupQuestion(q.Next)
		require.True(t, ok)
		if next.Type == models.AnswerPhoto {
			require.Equal(t, models.StatusAwaitingPhoto, reply.Status)
		} else {
			require.Equal(t, models.StatusAwaitingAnswer, reply.Status)
		}
		q = next
	}
}

// --- Tests ---

func TestConversation_FullWalkThroughRegistersBriefing(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()
	userID := int64(42)

	driveToPhoto(t, h, userID)

	reply, err := h.svc.HandlePhoto(ctx, userID, []byte("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingFinalConfirmation, reply.Status)
	assert.Contains(t, reply.Message, "RESUMEN")
	assert.Contains(t, reply.Message, "Distribución Zona Norte")
	assert.Contains(t, reply.Message, "Juan Pérez, Ana Gómez")

	reply, err = h.svc.HandleText(ctx, userID, "Sí")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, reply.Status)
	assert.Contains(t, reply.Message, "ID de registro: 1")

	require.Len(t, h.briefings.inserted, 1)
	b := h.briefings.inserted[0]
	assert.Equal(t, "Distribución Zona Norte", b.Department)
	assert.Equal(t, "2025-03-15", b.MeetingDate)
	assert.Equal(t, "08:00", b.StartTime)
	assert.Equal(t, "08:30", b.EndTime)
	assert.Equal(t, []string{"Juan Pérez", "Ana Gómez"}, b.PersonnelNames)
	assert.Equal(t, userID, b.TelegramUserID)
	assert.True(t, b.OpeningGreeting)
	assert.Empty(t, b.Observations, "optional question answered with No must stay empty")
	assert.Len(t, b.PhotoRefs, 1)

	// Session is gone after completion.
	_, err = h.sessions.Get(ctx, userID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	// Event published after commit.
	require.Len(t, h.publisher.exchanges, 1)
	assert.Equal(t, "briefing.registered", h.publisher.exchanges[0])
}

func TestConversation_StartDeclinedDeletesSession(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)

	reply, err := h.svc.HandleText(ctx, 1, "No")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, reply.Status)

	_, err = h.sessions.Get(ctx, 1)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestConversation_ReplayedAnswerDoesNotCorruptState(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)

	_, err = h.svc.HandleText(ctx, 1, "Mantenimiento Subestaciones")
	require.NoError(t, err)

	// The duplicate lands on the next question (a date) and is
	// rejected there; nothing moves.
	reply, err := h.svc.HandleText(ctx, 1, "Mantenimiento Subestaciones")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingAnswer, reply.Status)

	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.QMeetingDate, stored.CurrentQuestion)
	assert.Len(t, stored.Answers, 1)
}

func TestConversation_UnrecognizedStatusIsNotMutated(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	h.sessions.sessions[1] = &models.Session{
		SessionID: "x",
		UserID:    1,
		Status:    models.SessionStatus("corrupted"),
		Answers:   map[string]models.Value{},
	}

	reply, err := h.svc.HandleText(ctx, 1, "hola")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "/cancel")

	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatus("corrupted"), stored.Status)
}

func TestConversation_InvalidAnswerRepromptsWithoutAdvancing(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)

	// First question is free text; one rune is too short.
	reply, err := h.svc.HandleText(ctx, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingAnswer, reply.Status)
	assert.Contains(t, reply.Message, "Por favor")

	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.QDepartment, stored.CurrentQuestion, "a rejected answer must not advance")
	assert.Empty(t, stored.Answers)
}

func TestConversation_SecondStartOffersDecision(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Distribución Zona Norte")
	require.NoError(t, err)

	reply, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingSessionDecision, reply.Status)
	assert.Contains(t, reply.Message, "reunión en progreso")
}

func TestConversation_ContinueRestoresPriorState(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Distribución Zona Norte")
	require.NoError(t, err)

	_, err = h.svc.Start(ctx, 1)
	require.NoError(t, err)

	reply, err := h.svc.HandleText(ctx, 1, "Continuar")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingAnswer, reply.Status)
	assert.Contains(t, reply.Message, "Continuando")

	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.QMeetingDate, stored.CurrentQuestion, "the answered question must stay answered")
	assert.Contains(t, stored.Answers, models.QDepartment)
}

func TestConversation_NuevaDiscardsAndRestarts(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Distribución Zona Norte")
	require.NoError(t, err)

	_, err = h.svc.Start(ctx, 1)
	require.NoError(t, err)

	reply, err := h.svc.HandleText(ctx, 1, "Nueva")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingStartConfirmation, reply.Status)

	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored.Answers, "the replaced session's answers must be gone")
}

func TestConversation_TextWhileAwaitingPhoto(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	driveToPhoto(t, h, 1)

	reply, err := h.svc.HandleText(ctx, 1, "aquí está")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPhoto, reply.Status)
	assert.Contains(t, reply.Message, "fotografía")
}

func TestConversation_PhotoWhileAwaitingAnswer(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)

	reply, err := h.svc.HandlePhoto(ctx, 1, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingAnswer, reply.Status)
	assert.Equal(t, 0, h.photos.refs, "an out-of-turn photo must not be stored")
}

func TestConversation_RejectedPhotoKeepsWaiting(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	driveToPhoto(t, h, 1)
	h.photos.err = &PhotoRejectedError{Reason: "la imagen está vacía"}

	reply, err := h.svc.HandlePhoto(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPhoto, reply.Status)
	assert.Contains(t, reply.Message, "la imagen está vacía")
}

func TestConversation_FinalizeFailureKeepsSessionForRetry(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	driveToPhoto(t, h, 1)
	_, err := h.svc.HandlePhoto(ctx, 1, []byte("image-bytes"))
	require.NoError(t, err)

	h.briefings.failTimes = 1

	reply, err := h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingFinalConfirmation, reply.Status)
	assert.Contains(t, reply.Message, "Error al guardar")

	// Retry succeeds and nothing was double-inserted.
	reply, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, reply.Status)
	assert.Len(t, h.briefings.inserted, 1)
}

func TestConversation_FinalDenialResendsSummary(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	driveToPhoto(t, h, 1)
	_, err := h.svc.HandlePhoto(ctx, 1, []byte("image-bytes"))
	require.NoError(t, err)

	reply, err := h.svc.HandleText(ctx, 1, "No")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingFinalConfirmation, reply.Status)
	assert.Contains(t, reply.Message, "RESUMEN")
	assert.Contains(t, reply.Message, "/cancel")
	assert.Empty(t, h.briefings.inserted)
}

func TestConversation_ConflictingUpdateIsDiscarded(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)

	h.sessions.conflictOn = true
	reply, err := h.svc.HandleText(ctx, 1, "Distribución Zona Norte")
	assert.ErrorIs(t, err, models.ErrSessionConflict)
	assert.Contains(t, reply.Message, "descarté")

	h.sessions.conflictOn = false
	stored, err := h.sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored.Answers, "the losing write must not land")
}

func TestConversation_CancelWithAndWithoutSession(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	reply, err := h.svc.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, reply.Status)

	_, err = h.svc.Start(ctx, 1)
	require.NoError(t, err)

	reply, err = h.svc.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, reply.Status)

	_, err = h.sessions.Get(ctx, 1)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestConversation_TextWithoutSession(t *testing.T) {
	h := newBotHarness()

	reply, err := h.svc.HandleText(context.Background(), 99, "hola")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, reply.Status)
	assert.Contains(t, reply.Message, "/start")
}

func TestConversation_HelpIsStateless(t *testing.T) {
	h := newBotHarness()

	reply := h.svc.Help()
	assert.Contains(t, reply.Message, "/start")
	assert.Contains(t, reply.Message, "/cancel")
}

func TestConversation_PublishFailureDoesNotBlockCompletion(t *testing.T) {
	h := newBotHarness()
	ctx := context.Background()

	driveToPhoto(t, h, 1)
	_, err := h.svc.HandlePhoto(ctx, 1, []byte("image-bytes"))
	require.NoError(t, err)

	h.publisher.err = errors.New("broker down")

	reply, err := h.svc.HandleText(ctx, 1, "Sí")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, reply.Status)
	assert.Len(t, h.briefings.inserted, 1)
}
