package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the outcome of validating one raw user answer. When OK is
// false, ErrMessage carries the correction hint shown to the user (in
// Spanish, continuing the sentence "Por favor, ...").
type Result struct {
	OK         bool
	Value      models.Value
	ErrMessage string
}

func invalid(msg string) Result {
	return Result{ErrMessage: msg}
}

func valid(v models.Value) Result {
	return Result{OK: true, Value: v}
}

// Validator checks and normalizes raw textual input against a declared
// answer type. It holds no state beyond the clock used for the date
// window check.
type Validator struct {
	Now func() time.Time
}

// New creates a validator using the wall clock.
func New() *Validator {
	return &Validator{Now: time.Now}
}

var (
	affirmativeTokens = map[string]bool{
		"sí": true, "si": true, "s": true, "yes": true, "y": true,
		"1": true, "true": true, "verdadero": true,
	}
	negativeTokens = map[string]bool{
		"no": true, "n": true, "0": true, "false": true, "falso": true,
	}
	explicitEmptyTokens = map[string]bool{
		"no": true, "n": true, "ninguno": true, "ninguna": true, "nada": true, "": true,
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`),
		regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`),
		regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`),
	}

	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{1,2}):(\d{2})$`),
		regexp.MustCompile(`^(\d{1,2})\.(\d{2})$`),
		regexp.MustCompile(`^(\d{1,2})h(\d{2})$`),
		regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`), // seconds ignored
	}

	namePattern = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s\-\.]+$`)

	titleCaser = cases.Title(language.Spanish)
)

// Validate checks raw input against the declared answer type and
// returns the normalized value on success.
func (v *Validator) Validate(raw string, t models.AnswerType) Result {
	raw = strings.TrimSpace(raw)

	switch t {
	case models.AnswerBoolean:
		return v.validateBoolean(raw)
	case models.AnswerDate:
		return v.validateDate(raw)
	case models.AnswerTime:
		return v.validateTime(raw)
	case models.AnswerFreeText:
		return v.validateText(raw)
	case models.AnswerOptionalText:
		return v.validateOptionalText(raw)
	case models.AnswerNameList:
		return v.validateNameList(raw)
	case models.AnswerPhoto:
		return invalid("envía una imagen, no texto")
	default:
		return invalid("tipo de validación no reconocido")
	}
}

func (v *Validator) validateBoolean(raw string) Result {
	lower := strings.ToLower(raw)
	if affirmativeTokens[lower] {
		return valid(models.BoolValue(true))
	}
	if negativeTokens[lower] {
		return valid(models.BoolValue(false))
	}
	return invalid(`responde con "Sí" o "No"`)
}

func (v *Validator) validateDate(raw string) Result {
	for _, pat := range datePatterns {
		m := pat.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		// time.Date normalizes out-of-range components, so a
		// round-trip compare catches 31/02 and friends.
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
			continue
		}

		currentYear := v.Now().Year()
		if year > currentYear+1 {
			return invalid(fmt.Sprintf("el año no puede ser mayor a %d", currentYear+1))
		}
		if year < currentYear-10 {
			return invalid(fmt.Sprintf("el año no puede ser menor a %d", currentYear-10))
		}

		return valid(models.DateValue(d.Format("2006-01-02")))
	}

	return invalid("ingresa la fecha en formato DD/MM/AAAA (ejemplo: 15/03/2024)")
}

func (v *Validator) validateTime(raw string) Result {
	for _, pat := range timePatterns {
		m := pat.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])

		if hour < 0 || hour > 23 {
			return invalid("la hora debe estar entre 00 y 23")
		}
		if minute < 0 || minute > 59 {
			return invalid("los minutos deben estar entre 00 y 59")
		}

		return valid(models.TimeValue(fmt.Sprintf("%02d:%02d", hour, minute)))
	}

	return invalid("ingresa la hora en formato HH:MM (ejemplo: 08:30)")
}

func (v *Validator) validateText(raw string) Result {
	length := utf8.RuneCountInString(raw)
	if length == 0 {
		return invalid("este campo no puede estar vacío")
	}
	if length < 2 {
		return invalid("ingresa al menos 2 caracteres")
	}
	if length > 500 {
		return invalid("el texto no puede exceder 500 caracteres")
	}
	return valid(models.TextValue(normalizeText(raw)))
}

func (v *Validator) validateOptionalText(raw string) Result {
	if explicitEmptyTokens[strings.ToLower(raw)] {
		return valid(models.TextValue(""))
	}
	if utf8.RuneCountInString(raw) > 500 {
		return invalid("el texto no puede exceder 500 caracteres")
	}
	return valid(models.TextValue(normalizeText(raw)))
}

func (v *Validator) validateNameList(raw string) Result {
	if raw == "" {
		return invalid("debes ingresar al menos un nombre")
	}

	// Split on each separator in turn, feeding every pass the output
	// of the previous one.
	fragments := []string{raw}
	for _, sep := range []string{",", ";", "\n"} {
		var next []string
		for _, f := range fragments {
			next = append(next, strings.Split(f, sep)...)
		}
		fragments = next
	}

	var names []string
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		length := utf8.RuneCountInString(fragment)
		if length < 2 {
			return invalid(fmt.Sprintf("el nombre %q es demasiado corto (mínimo 2 caracteres)", fragment))
		}
		if length > 100 {
			return invalid(fmt.Sprintf("el nombre %q es demasiado largo (máximo 100 caracteres)", truncateRunes(fragment, 20)+"..."))
		}
		if !namePattern.MatchString(fragment) {
			return invalid(fmt.Sprintf("el nombre %q contiene caracteres no válidos", fragment))
		}
		names = append(names, normalizeText(fragment))
	}

	if len(names) == 0 {
		return invalid("debes ingresar al menos un nombre válido")
	}
	if len(names) > 50 {
		return invalid("no puedes ingresar más de 50 nombres")
	}

	return valid(models.NamesValue(names))
}

// ScheduleResult is the outcome of the cross-field start/end check.
type ScheduleResult struct {
	OK              bool
	ErrMessage      string
	StartTime       string
	EndTime         string
	DurationMinutes int
}

// ValidateScheduleConsistency confirms that the end time is strictly
// after the start and the duration falls between 5 minutes and 12
// hours. It is not part of the linear question flow; callers that need
// temporal integrity (the finalizer does) invoke it explicitly.
func (v *Validator) ValidateScheduleConsistency(start, end string) ScheduleResult {
	startRes := v.validateTime(start)
	if !startRes.OK {
		return ScheduleResult{ErrMessage: "Hora de inicio inválida: " + startRes.ErrMessage}
	}
	endRes := v.validateTime(end)
	if !endRes.OK {
		return ScheduleResult{ErrMessage: "Hora de fin inválida: " + endRes.ErrMessage}
	}

	startMin := timeOfDayMinutes(startRes.Value.Time)
	endMin := timeOfDayMinutes(endRes.Value.Time)

	duration := endMin - startMin
	if duration <= 0 {
		return ScheduleResult{ErrMessage: "la hora de término debe ser posterior a la hora de inicio"}
	}
	if duration > 12*60 {
		return ScheduleResult{ErrMessage: "la duración de la reunión no puede exceder 12 horas"}
	}
	if duration < 5 {
		return ScheduleResult{ErrMessage: "la reunión debe durar al menos 5 minutos"}
	}

	return ScheduleResult{
		OK:              true,
		StartTime:       startRes.Value.Time,
		EndTime:         endRes.Value.Time,
		DurationMinutes: duration,
	}
}

func timeOfDayMinutes(hhmm string) int {
	hour, _ := strconv.Atoi(hhmm[:2])
	minute, _ := strconv.Atoi(hhmm[3:])
	return hour*60 + minute
}

// normalizeText collapses whitespace runs and title-cases name-like
// strings (short, no digits), mirroring how supervisors write names.
func normalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if looksLikeName(s) {
		s = titleCaser.String(s)
	}
	return s
}

func looksLikeName(s string) bool {
	if utf8.RuneCountInString(s) >= 50 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
