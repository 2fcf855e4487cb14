// internal/handler/prompt.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prompt errors
var (
	ErrNoPromptClient  = errors.New("no client connected to answer the prompt")
	ErrPromptCancelled = errors.New("prompt cancelled by operator")
)

// Prompt kinds sent in prompt_request messages
const (
	PromptPickFolder = "pick_folder"
	PromptError      = "error"
)

// PromptAnswer is a client's reply to a prompt_request
type PromptAnswer struct {
	RequestID string `json:"request_id"`
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// PromptBroker implements service.UserPrompt by asking connected
// WebSocket clients and waiting for the first answer
type PromptBroker struct {
	connections *ConnectionManager
	pending     map[string]chan PromptAnswer
	mutex       sync.Mutex
	logger      *zap.Logger
}

// NewPromptBroker creates a new prompt broker
func NewPromptBroker(connections *ConnectionManager, logger *zap.Logger) *PromptBroker {
	return &PromptBroker{
		connections: connections,
		pending:     make(map[string]chan PromptAnswer),
		logger:      logger.With(zap.String("component", "prompt")),
	}
}

// PickFolder asks an operator to choose the recording folder
func (b *PromptBroker) PickFolder(ctx context.Context) (string, error) {
	answer, err := b.ask(ctx, PromptPickFolder, "Select recording folder", "")
	if err != nil {
		return "", err
	}
	if answer.Cancelled || answer.Path == "" {
		return "", ErrPromptCancelled
	}
	return answer.Path, nil
}

// ShowError shows a modal error and waits for acknowledgement
func (b *PromptBroker) ShowError(ctx context.Context, title, message string) error {
	_, err := b.ask(ctx, PromptError, title, message)
	return err
}

// Resolve delivers a client's answer; it reports whether a prompt was waiting
func (b *PromptBroker) Resolve(answer PromptAnswer) bool {
	b.mutex.Lock()
	ch, ok := b.pending[answer.RequestID]
	delete(b.pending, answer.RequestID)
	b.mutex.Unlock()

	if !ok {
		return false
	}
	ch <- answer
	return true
}

// Pending returns the number of unanswered prompts
func (b *PromptBroker) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.pending)
}

func (b *PromptBroker) ask(ctx context.Context, kind, title, message string) (PromptAnswer, error) {
	if b.connections.Count() == 0 {
		return PromptAnswer{}, ErrNoPromptClient
	}

	requestID := uuid.New().String()
	ch := make(chan PromptAnswer, 1)

	b.mutex.Lock()
	b.pending[requestID] = ch
	b.mutex.Unlock()

	delivered := b.connections.Broadcast(&WebSocketMessage{
		Type: "prompt_request",
		Data: map[string]interface{}{
			"kind":    kind,
			"title":   title,
			"message": message,
		},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
	if delivered == 0 {
		b.forget(requestID)
		return PromptAnswer{}, ErrNoPromptClient
	}

	b.logger.Debug("Prompt sent",
		zap.String("request_id", requestID),
		zap.String("kind", kind),
		zap.Int("clients", delivered),
	)

	select {
	case answer := <-ch:
		return answer, nil
	case <-ctx.Done():
		b.forget(requestID)
		return PromptAnswer{}, fmt.Errorf("prompt %s unanswered: %w", kind, ctx.Err())
	}
}

func (b *PromptBroker) forget(requestID string) {
	b.mutex.Lock()
	delete(b.pending, requestID)
	b.mutex.Unlock()
}
