package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/validation"
)

// Reply is what the dialog engine hands back to the transport for
// every inbound event: the message to relay and the status the
// conversation is in afterwards.
type Reply struct {
	Message string
	Status  models.SessionStatus
}

// User-facing messages. All in Spanish, matching the forms the crews
// fill out on paper.
const (
	msgWelcome = "¡Hola! Soy SIRIJ BOT, tu asistente para las Reuniones de Inicio de Jornada de CFE. " +
		"¿Estás listo para comenzar con el registro de hoy?\n\n" +
		"Responde \"Sí\" para continuar."
	msgExistingSession = "⚠️ Ya tienes una reunión en progreso.\n\n" +
		"¿Quieres continuar con la reunión actual o cancelarla para iniciar una nueva?\n\n" +
		"Responde \"Continuar\" o \"Nueva\""
	msgNoSession        = "ℹ️ No tienes una reunión activa. Usa /start para comenzar."
	msgNothingToCancel  = "ℹ️ No tienes ninguna reunión activa."
	msgCancelled        = "✅ Reunión cancelada. Puedes iniciar una nueva con /start"
	msgDeclinedStart    = "👋 Entendido. Cuando estés listo para registrar una reunión, usa /start."
	msgConfirmPrompt    = "Por favor, responde \"Sí\" para comenzar o \"No\" para cancelar."
	msgDecisionPrompt   = "Por favor, responde \"Continuar\" para seguir con la reunión actual o \"Nueva\" para cancelar y empezar de nuevo."
	msgAwaitingPhoto    = "📷 Estoy esperando que envíes una fotografía como evidencia. Por favor, envía la imagen (no texto)."
	msgPhotoNotExpected = "ℹ️ No estoy esperando una fotografía en este momento. Completa primero todas las preguntas de la reunión."
	msgUnknownState     = "❌ Estado de conversación no reconocido. Usa /cancel para reiniciar."
	msgGenericError     = "❌ Error procesando tu mensaje. Usa /cancel para reiniciar."
	msgConflict         = "⚠️ Recibí varios mensajes tuyos al mismo tiempo y descarté el último. Responde de nuevo a la última pregunta, por favor."
	msgFinalPrompt      = "Por favor, responde \"Sí\" para guardar la reunión o \"No\" para revisar el resumen."

	helpText = "🤖 SIRIJ BOT - Ayuda\n\n" +
		"Comandos disponibles:\n" +
		"/start - Iniciar nueva reunión de inicio de jornada\n" +
		"/help - Mostrar esta ayuda\n" +
		"/cancel - Cancelar reunión actual\n\n" +
		"¿Cómo usar el bot?\n" +
		"1. Usa /start para comenzar\n" +
		"2. Responde las preguntas paso a paso\n" +
		"3. Sube una foto como evidencia\n" +
		"4. Confirma la información\n\n" +
		"Tipos de respuesta:\n" +
		"• Texto libre: Escribe tu respuesta\n" +
		"• Sí/No: Responde \"Sí\" o \"No\"\n" +
		"• Fecha: Formato DD/MM/AAAA\n" +
		"• Hora: Formato HH:MM\n" +
		"• Nombres: Separa con comas\n\n" +
		"¿Necesitas ayuda? Contacta al administrador."
)

// ConversationService is the dialog engine. It owns the question
// chain, drives the per-user state machine and is the only writer of
// session state. Every inbound event is one read-modify-write against
// the user's session; a stale write is discarded, never merged.
type ConversationService struct {
	sessions  SessionStore
	photos    PhotoStore
	finalizer *Finalizer
	validator *validation.Validator
	log       *logrus.Logger
}

// NewConversationService wires the dialog engine to its collaborators.
func NewConversationService(sessions SessionStore, photos PhotoStore, finalizer *Finalizer, log *logrus.Logger) *ConversationService {
	return &ConversationService{
		sessions:  sessions,
		photos:    photos,
		finalizer: finalizer,
		validator: validation.New(),
		log:       log,
	}
}

// Help returns the static command help.
func (s *ConversationService) Help() Reply {
	return Reply{Message: helpText, Status: models.StatusIdle}
}

// Start handles the /start command. With no active session it creates
// one and asks for confirmation; with one already in progress it
// offers the continue-or-restart branch instead of overwriting.
func (s *ConversationService) Start(ctx context.Context, userID int64) (Reply, error) {
	session, err := s.sessions.Get(ctx, userID)
	switch {
	case err == nil:
		if session.Status != models.StatusAwaitingSessionDecision {
			session.ResumeStatus = session.Status
			session.Status = models.StatusAwaitingSessionDecision
			if reply, err := s.persist(ctx, session); err != nil {
				return reply, err
			}
		}
		return Reply{Message: msgExistingSession, Status: models.StatusAwaitingSessionDecision}, nil

	case errors.Is(err, models.ErrSessionNotFound):
		return s.createSession(ctx, userID)

	default:
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load session on start")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}
}

func (s *ConversationService) createSession(ctx context.Context, userID int64) (Reply, error) {
	session := &models.Session{
		SessionID: uuid.New().String(),
		UserID:    userID,
		Status:    models.StatusAwaitingStartConfirmation,
		Answers:   make(map[string]models.Value),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, models.ErrSessionExists) {
			// Lost a create race; the other event won.
			return Reply{Message: msgExistingSession, Status: models.StatusAwaitingSessionDecision}, nil
		}
		s.log.WithError(err).WithField("user_id", userID).Error("failed to create session")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}
	return Reply{Message: msgWelcome, Status: models.StatusAwaitingStartConfirmation}, nil
}

// Cancel handles the /cancel command from any state.
func (s *ConversationService) Cancel(ctx context.Context, userID int64) (Reply, error) {
	_, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return Reply{Message: msgNothingToCancel, Status: models.StatusIdle}, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load session on cancel")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}

	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to delete session on cancel")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}
	return Reply{Message: msgCancelled, Status: models.StatusCancelled}, nil
}

// HandleText processes an ordinary text message while a dialog is in
// progress.
func (s *ConversationService) HandleText(ctx context.Context, userID int64, text string) (Reply, error) {
	session, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return Reply{Message: msgNoSession, Status: models.StatusIdle}, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load session")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}

	switch session.Status {
	case models.StatusAwaitingStartConfirmation:
		return s.handleStartConfirmation(ctx, session, text)
	case models.StatusAwaitingSessionDecision:
		return s.handleSessionDecision(ctx, session, text)
	case models.StatusAwaitingAnswer:
		return s.handleAnswer(ctx, session, text)
	case models.StatusAwaitingPhoto:
		return Reply{Message: msgAwaitingPhoto, Status: models.StatusAwaitingPhoto}, nil
	case models.StatusAwaitingFinalConfirmation:
		return s.handleFinalConfirmation(ctx, session, text)
	default:
		// Should not happen while the session invariants hold.
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"status":  session.Status,
		}).Warn("session in unrecognized status")
		return Reply{Message: msgUnknownState, Status: session.Status}, nil
	}
}

func (s *ConversationService) handleStartConfirmation(ctx context.Context, session *models.Session, text string) (Reply, error) {
	res := s.validator.Validate(text, models.AnswerBoolean)
	if !res.OK {
		return Reply{Message: msgConfirmPrompt, Status: models.StatusAwaitingStartConfirmation}, nil
	}

	if !res.Value.Bool {
		if err := s.sessions.Delete(ctx, session.UserID); err != nil {
			s.log.WithError(err).WithField("user_id", session.UserID).Error("failed to delete declined session")
			return Reply{Message: msgGenericError, Status: session.Status}, err
		}
		return Reply{Message: msgDeclinedStart, Status: models.StatusIdle}, nil
	}

	first := models.FirstQuestion()
	session.Status = models.StatusAwaitingAnswer
	session.CurrentQuestion = first.Key
	if reply, err := s.persist(ctx, session); err != nil {
		return reply, err
	}
	return Reply{Message: first.Prompt, Status: models.StatusAwaitingAnswer}, nil
}

func (s *ConversationService) handleSessionDecision(ctx context.Context, session *models.Session, text string) (Reply, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "continuar", "continúa", "continua":
		return s.resumeSession(ctx, session)
	case "nueva", "nuevo", "cancelar":
		if err := s.sessions.Delete(ctx, session.UserID); err != nil {
			s.log.WithError(err).WithField("user_id", session.UserID).Error("failed to delete replaced session")
			return Reply{Message: msgGenericError, Status: session.Status}, err
		}
		return s.createSession(ctx, session.UserID)
	default:
		return Reply{Message: msgDecisionPrompt, Status: models.StatusAwaitingSessionDecision}, nil
	}
}

func (s *ConversationService) resumeSession(ctx context.Context, session *models.Session) (Reply, error) {
	resumed := session.ResumeStatus
	if resumed == "" {
		resumed = models.StatusAwaitingAnswer
	}
	session.Status = resumed
	session.ResumeStatus = ""
	if reply, err := s.persist(ctx, session); err != nil {
		return reply, err
	}

	var prompt string
	switch resumed {
	case models.StatusAwaitingStartConfirmation:
		prompt = msgWelcome
	case models.StatusAwaitingPhoto:
		q, _ := models.LookupQuestion(models.QRequestPhoto)
		prompt = q.Prompt
	case models.StatusAwaitingFinalConfirmation:
		prompt = s.confirmationMessage(session)
	default:
		q, ok := models.LookupQuestion(session.CurrentQuestion)
		if !ok {
			q = models.FirstQuestion()
		}
		prompt = q.Prompt
	}

	return Reply{Message: "Continuando con la reunión...\n\n" + prompt, Status: resumed}, nil
}

func (s *ConversationService) handleAnswer(ctx context.Context, session *models.Session, text string) (Reply, error) {
	question, ok := models.LookupQuestion(session.CurrentQuestion)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"user_id":  session.UserID,
			"question": session.CurrentQuestion,
		}).Error("session points at unknown question")
		return Reply{Message: msgUnknownState, Status: session.Status}, nil
	}

	res := s.validator.Validate(text, question.Type)
	if !res.OK {
		// Recoverable in place: no mutation, no answer recorded.
		return Reply{
			Message: "Por favor, " + res.ErrMessage,
			Status:  models.StatusAwaitingAnswer,
		}, nil
	}

	session.SetAnswer(question.Key, res.Value)

	next, _ := models.LookupQuestion(question.Next)
	if next.Type == models.AnswerPhoto {
		session.Status = models.StatusAwaitingPhoto
		session.CurrentQuestion = next.Key
		if reply, err := s.persist(ctx, session); err != nil {
			return reply, err
		}
		return Reply{Message: next.Prompt, Status: models.StatusAwaitingPhoto}, nil
	}

	session.CurrentQuestion = next.Key
	if reply, err := s.persist(ctx, session); err != nil {
		return reply, err
	}
	return Reply{Message: next.Prompt, Status: models.StatusAwaitingAnswer}, nil
}

// HandlePhoto processes an inbound image while the dialog expects one.
func (s *ConversationService) HandlePhoto(ctx context.Context, userID int64, payload []byte) (Reply, error) {
	session, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return Reply{Message: msgNoSession, Status: models.StatusIdle}, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load session")
		return Reply{Message: msgGenericError, Status: models.StatusIdle}, err
	}

	if session.Status != models.StatusAwaitingPhoto {
		return Reply{Message: msgPhotoNotExpected, Status: session.Status}, nil
	}

	ref, err := s.photos.Store(payload)
	if err != nil {
		var rejected *PhotoRejectedError
		if errors.As(err, &rejected) {
			return Reply{
				Message: "❌ Error al procesar la fotografía: " + rejected.Reason,
				Status:  models.StatusAwaitingPhoto,
			}, nil
		}
		s.log.WithError(err).WithField("user_id", userID).Error("failed to store photo")
		return Reply{
			Message: "❌ Error guardando la fotografía. Intenta enviarla de nuevo.",
			Status:  models.StatusAwaitingPhoto,
		}, err
	}

	session.MediaRefs = append(session.MediaRefs, ref)
	session.Status = models.StatusAwaitingFinalConfirmation
	session.CurrentQuestion = ""
	if reply, err := s.persist(ctx, session); err != nil {
		return reply, err
	}

	return Reply{
		Message: "¡Excelente! He registrado toda la información de la Reunión de Inicio de Jornada.\n\n" +
			s.confirmationMessage(session),
		Status: models.StatusAwaitingFinalConfirmation,
	}, nil
}

func (s *ConversationService) handleFinalConfirmation(ctx context.Context, session *models.Session, text string) (Reply, error) {
	res := s.validator.Validate(text, models.AnswerBoolean)
	if !res.OK {
		return Reply{Message: msgFinalPrompt, Status: models.StatusAwaitingFinalConfirmation}, nil
	}

	if !res.Value.Bool {
		// Denial policy: re-send the summary. There is no per-field
		// editing; /cancel discards the whole report.
		return Reply{
			Message: "De acuerdo, revisa nuevamente la información:\n\n" +
				s.confirmationMessage(session) +
				"\n\nSi algo es incorrecto, usa /cancel para descartar el registro y comenzar de nuevo.",
			Status: models.StatusAwaitingFinalConfirmation,
		}, nil
	}

	briefing, err := s.finalizer.Finalize(ctx, session)
	if err != nil {
		// Session stays intact so the user can retry with "Sí".
		s.log.WithError(err).WithField("user_id", session.UserID).Error("finalization failed")
		return Reply{
			Message: "❌ Error al guardar la reunión:\n" + err.Error() + "\n\n" +
				"Puedes intentar de nuevo respondiendo \"Sí\", o contactar al administrador.",
			Status: models.StatusAwaitingFinalConfirmation,
		}, nil
	}

	if err := s.sessions.Delete(ctx, session.UserID); err != nil {
		// The record is committed; a leftover session will be caught
		// by lazy expiry. Report success anyway.
		s.log.WithError(err).WithField("user_id", session.UserID).Warn("failed to delete finalized session")
	}

	return Reply{
		Message: fmt.Sprintf("✅ ¡Reunión registrada exitosamente!\n\n"+
			"🆔 ID de registro: %d\n"+
			"📅 Fecha de registro: %s\n\n"+
			"¡Gracias por usar SIRIJ BOT! 🚀\n\n"+
			"Usa /start cuando necesites registrar otra reunión.",
			briefing.ID, briefing.RegisteredAt.Format("02/01/2006 15:04")),
		Status: models.StatusCompleted,
	}, nil
}

// confirmationMessage renders the summary shown before final
// confirmation.
func (s *ConversationService) confirmationMessage(session *models.Session) string {
	display := func(key string) string {
		if v, ok := session.Answer(key); ok {
			return v.Display()
		}
		return "N/A"
	}

	var b strings.Builder
	b.WriteString("📋 RESUMEN:\n")
	fmt.Fprintf(&b, "• Departamento: %s\n", display(models.QDepartment))
	fmt.Fprintf(&b, "• Fecha: %s\n", display(models.QMeetingDate))
	fmt.Fprintf(&b, "• Supervisor: %s\n", display(models.QSupervisorName))
	if v, ok := session.Answer(models.QPersonnelNames); ok && len(v.Names) > 0 {
		fmt.Fprintf(&b, "• Personal: %s\n", v.Display())
	}
	fmt.Fprintf(&b, "• Horario: %s - %s\n", display(models.QStartTime), display(models.QEndTime))
	b.WriteString("• Evidencia fotográfica: ✅ Guardada\n\n")
	b.WriteString("¿Confirmas que toda la información es correcta? (Sí/No)")
	return b.String()
}

// persist writes the session back, translating a revision conflict
// into the discard reply. The losing event is dropped; the user simply
// answers again from the state that won.
func (s *ConversationService) persist(ctx context.Context, session *models.Session) (Reply, error) {
	err := s.sessions.Update(ctx, session)
	if err == nil {
		return Reply{}, nil
	}

	if errors.Is(err, models.ErrSessionConflict) {
		s.log.WithField("user_id", session.UserID).Warn("concurrent session update discarded")
		return Reply{Message: msgConflict, Status: session.Status}, err
	}

	s.log.WithError(err).WithField("user_id", session.UserID).Error("failed to persist session")
	return Reply{Message: msgGenericError, Status: session.Status}, err
}
