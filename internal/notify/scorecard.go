package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/session"
)

// StudentDirectory resolves the account a session belongs to.
type StudentDirectory interface {
	Student(ctx context.Context, studentID string) (*auth.Student, error)
}

var scorecardTmpl = template.Must(template.New("scorecard").Parse(`Student: {{.Student}}
Score: {{.Points}}/{{.MaxPoints}}
Correct: {{.Correct}} of {{.Total}}
Finished: {{.FinishedAt}} ({{.Trigger}})

Detailed Results:
{{range .Lines}}Q{{.Number}}: Your answer: {{.Chosen}}, Correct answer: {{.Correct}}
{{end}}`))

type scorecardLine struct {
	Number  int
	Chosen  string
	Correct string
}

type scorecardView struct {
	Student    string
	Points     int
	MaxPoints  int
	Correct    int
	Total      int
	FinishedAt string
	Trigger    string
	Lines      []scorecardLine
}

// RenderScorecard formats a finalized result as plain text.
func RenderScorecard(studentName string, r session.ScoreResult) (string, error) {
	view := scorecardView{
		Student:    studentName,
		Points:     r.Points,
		MaxPoints:  r.MaxPoints,
		Correct:    r.CorrectCount,
		Total:      r.TotalQuestions,
		FinishedAt: r.FinalizedAt.UTC().Format("2006-01-02 15:04 MST"),
		Trigger:    string(r.Trigger),
	}
	for _, q := range r.Questions {
		chosen := "Not answered"
		if q.Answered {
			chosen = strings.Join(q.Chosen, "")
		}
		view.Lines = append(view.Lines, scorecardLine{
			Number:  q.Index + 1,
			Chosen:  chosen,
			Correct: strings.Join(q.Correct, ""),
		})
	}

	var buf bytes.Buffer
	if err := scorecardTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// ScorecardNotifier mails each finalized result to the student and to every
// instructor address.
type ScorecardNotifier struct {
	mailer      Mailer
	directory   StudentDirectory
	instructors []string
	logger      zerolog.Logger
}

var _ session.ResultNotifier = (*ScorecardNotifier)(nil)

func NewScorecardNotifier(mailer Mailer, directory StudentDirectory, instructors []string, logger zerolog.Logger) *ScorecardNotifier {
	clean := make([]string, 0, len(instructors))
	for _, addr := range instructors {
		if addr = strings.TrimSpace(addr); addr != "" {
			clean = append(clean, addr)
		}
	}
	return &ScorecardNotifier{
		mailer:      mailer,
		directory:   directory,
		instructors: clean,
		logger:      logger.With().Str("component", "scorecard_notifier").Logger(),
	}
}

// NotifyResult sends one message per recipient and joins delivery failures.
func (n *ScorecardNotifier) NotifyResult(ctx context.Context, s *session.TestSession, r session.ScoreResult) error {
	var errs []error

	name, email := s.StudentID, ""
	if student, err := n.directory.Student(ctx, s.StudentID); err != nil {
		errs = append(errs, fmt.Errorf("lookup student: %w", err))
	} else {
		name, email = student.Username, student.Email
	}

	body, err := RenderScorecard(name, r)
	if err != nil {
		return err
	}

	if email != "" {
		if err := n.mailer.Send(ctx, email, "Your Test Results", body); err != nil {
			errs = append(errs, fmt.Errorf("student %s: %w", email, err))
		}
	}
	for _, addr := range n.instructors {
		if err := n.mailer.Send(ctx, addr, "Test Results for "+name, body); err != nil {
			errs = append(errs, fmt.Errorf("instructor %s: %w", addr, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	n.logger.Debug().Str("session_id", s.ID).Int("instructors", len(n.instructors)).Msg("scorecard delivered")
	return nil
}
