// Package advisor answers personal finance questions through a chat
// completion model, grounding each question in built-in notes on the Kenyan
// market and keeping short per-user conversation histories.
package advisor

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/metrics"
)

const (
	// DefaultSessionID names the conversation used when a client sends none.
	DefaultSessionID = "default"
	// MaxQuestionLength bounds a single question, in characters.
	MaxQuestionLength = 2000

	defaultHistoryLimit = 20
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Service runs advisor conversations.
type Service struct {
	completer    Completer
	sessions     SessionStore
	historyLimit int
	log          *slog.Logger
	now          func() time.Time
}

// NewService builds an advisor. historyLimit caps the stored turns per
// conversation; <= 0 selects the default.
func NewService(completer Completer, sessions SessionStore, historyLimit int, log *slog.Logger) *Service {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Service{
		completer:    completer,
		sessions:     sessions,
		historyLimit: historyLimit,
		log:          log,
		now:          time.Now,
	}
}

// Reply is the advisor's answer.
type Reply struct {
	SessionID string    `json:"session_id,omitempty"`
	Response  string    `json:"response"`
	Topics    []string  `json:"topics"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat answers message within the owner's conversation sessionID and
// records both turns.
func (s *Service) Chat(ctx context.Context, ownerID, sessionID, message string) (Reply, error) {
	reply, err := s.chat(ctx, ownerID, sessionID, message)
	metrics.AdvisorRequest("chat", err)
	return reply, err
}

func (s *Service) chat(ctx context.Context, ownerID, sessionID, message string) (Reply, error) {
	question, err := validQuestion(message)
	if err != nil {
		return Reply{}, err
	}
	sessionID, err = normaliseSessionID(sessionID)
	if err != nil {
		return Reply{}, err
	}

	history, err := s.sessions.Load(ctx, ownerID, sessionID)
	if err != nil {
		return Reply{}, err
	}
	topics := Match(question)

	prompt := make([]Message, 0, len(history)+2)
	prompt = append(prompt, Message{Role: RoleSystem, Content: systemPrompt})
	prompt = append(prompt, history...)
	prompt = append(prompt, Message{Role: RoleUser, Content: buildPrompt(question, topics, nil)})

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Reply{}, apperr.Upstream("advisor is unavailable", err)
	}

	history = append(history,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer})
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	if err := s.sessions.Save(ctx, ownerID, sessionID, history); err != nil {
		return Reply{}, err
	}

	s.log.Info("advisor answered",
		slog.String("identity_id", ownerID),
		slog.String("session_id", sessionID),
		slog.Int("history", len(history)),
		slog.Any("topics", topicNames(topics)))
	return Reply{SessionID: sessionID, Response: answer, Topics: topicNames(topics), Timestamp: s.now().UTC()}, nil
}

// Advice answers a single question tailored to profile without touching
// any conversation.
func (s *Service) Advice(ctx context.Context, question string, profile Profile) (Reply, error) {
	reply, err := s.advice(ctx, question, profile)
	metrics.AdvisorRequest("advice", err)
	return reply, err
}

func (s *Service) advice(ctx context.Context, question string, profile Profile) (Reply, error) {
	question, err := validQuestion(question)
	if err != nil {
		return Reply{}, err
	}
	if profile.InvestmentAmount < 0 {
		return Reply{}, apperr.Validation("investmentAmount must not be negative")
	}
	topics := Match(question)
	answer, err := s.completer.Complete(ctx, []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: buildPrompt(question, topics, &profile)},
	})
	if err != nil {
		return Reply{}, apperr.Upstream("advisor is unavailable", err)
	}
	return Reply{Response: answer, Topics: topicNames(topics), Timestamp: s.now().UTC()}, nil
}

// Reset clears a conversation. Clearing one that does not exist succeeds.
func (s *Service) Reset(ctx context.Context, ownerID, sessionID string) (string, error) {
	sessionID, err := normaliseSessionID(sessionID)
	if err != nil {
		return "", err
	}
	if _, err := s.sessions.Delete(ctx, ownerID, sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// DeleteSession removes a named conversation. The default conversation can
// only be reset.
func (s *Service) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || sessionID == DefaultSessionID {
		return apperr.Validation("a named session id is required")
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return apperr.Validation("session id may contain only letters, digits, '-' and '_'")
	}
	existed, err := s.sessions.Delete(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}
	if !existed {
		return apperr.NotFound("session not found")
	}
	return nil
}

func validQuestion(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", apperr.Validation("message is required")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return "", apperr.Validation("message is too long")
	}
	return q, nil
}

func normaliseSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return DefaultSessionID, nil
	}
	if !sessionIDPattern.MatchString(id) {
		return "", apperr.Validation("session id may contain only letters, digits, '-' and '_'")
	}
	return id, nil
}

func topicNames(topics []Topic) []string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	return names
}
