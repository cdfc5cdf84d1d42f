package runtime

import (
	"context"
	"sync"

	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Services holds references to the external AI providers used by the
// pipeline. ValidateAndSetEmbedding and ValidateAndSetChat check
// connectivity before wiring a provider in; the Set* methods wire it in
// without a check. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	embeddingService driven.EmbeddingService
	chatService      driven.StructuredChat
	fileChatService  driven.FileChat
}

// NewServices creates a new Services registry
func NewServices() *Services {
	return &Services{}
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// ChatService returns the current structured chat service (may be nil)
func (s *Services) ChatService() driven.StructuredChat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatService
}

// FileChatService returns the current file chat service (may be nil)
func (s *Services) FileChatService() driven.FileChat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileChatService
}

// SetEmbeddingService updates the embedding service, closing the old one.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
}

// SetChatService updates the chat service, closing the old one.
func (s *Services) SetChatService(svc driven.StructuredChat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatService != nil {
		_ = s.chatService.Close()
	}
	s.chatService = svc
}

// SetFileChatService updates the file chat service.
func (s *Services) SetFileChatService(svc driven.FileChat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileChatService = svc
}

// ValidateAndSetEmbedding validates connectivity before wiring the service.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetChat validates connectivity before wiring the service.
func (s *Services) ValidateAndSetChat(ctx context.Context, svc driven.StructuredChat) error {
	if svc == nil {
		s.SetChatService(nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetChatService(svc)
	return nil
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.chatService != nil {
		_ = s.chatService.Close()
		s.chatService = nil
	}
	s.fileChatService = nil

	return nil
}
