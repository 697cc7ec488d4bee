// audit/service.go
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

// Service accepts audit entries from request handlers without blocking them.
// Entries go through a buffered channel drained by one writer goroutine;
// when the buffer is full the entry is dropped with a warning rather than
// stalling the request path. Audit recording is best-effort by contract: a
// failed write never fails the operation it describes.
type Service interface {
	RecordLogin(entry *model.LoginLog)
	RecordOpera(entry *model.OperaLog)
	Close()
}

type auditEvent struct {
	login *model.LoginLog
	opera *model.OperaLog
}

type service struct {
	repo    Repository
	events  chan auditEvent
	done    chan struct{}
	closeMu sync.Once
}

const writeTimeout = 5 * time.Second

func NewService(repo Repository) Service {
	s := &service{
		repo:   repo,
		events: make(chan auditEvent, 1024),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *service) RecordLogin(entry *model.LoginLog) {
	select {
	case s.events <- auditEvent{login: entry}:
	default:
		logger.Warn("Audit buffer full, dropping login log", zap.String("username", entry.Username))
	}
}

func (s *service) RecordOpera(entry *model.OperaLog) {
	select {
	case s.events <- auditEvent{opera: entry}:
	default:
		logger.Warn("Audit buffer full, dropping operation log", zap.String("path", entry.Path))
	}
}

func (s *service) drain() {
	defer close(s.done)
	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		switch {
		case event.login != nil:
			err = s.repo.RecordLogin(ctx, event.login)
		case event.opera != nil:
			err = s.repo.RecordOpera(ctx, event.opera)
		}
		cancel()
		if err != nil {
			logger.Error("Failed to record audit entry", zap.Error(err))
		}
	}
}

// Close stops accepting entries and waits for the buffer to flush
func (s *service) Close() {
	s.closeMu.Do(func() {
		close(s.events)
		<-s.done
	})
}
