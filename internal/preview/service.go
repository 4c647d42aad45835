package preview

import (
	"context"
	"time"

	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/render"
)

// SessionSource loads a form session owned by userID.
type SessionSource interface {
	Get(ctx context.Context, id, userID string) (*models.FormSession, error)
}

// Result is one rendered preview.
type Result struct {
	SessionID    string    `json:"sessionId"`
	DocumentType string    `json:"documentType"`
	TemplateID   string    `json:"templateId"`
	Step         int       `json:"step"`
	HTML         string    `json:"html"`
	RenderedAt   time.Time `json:"renderedAt"`
}

type Service struct {
	sessions  SessionSource
	renderer  *render.Renderer
	debouncer *Debouncer
	watermark string
	scale     float64
	timeout   time.Duration
	log       logger.Logger
}

func NewService(sessions SessionSource, renderer *render.Renderer, debounce time.Duration, watermark string, scale float64, log logger.Logger) *Service {
	if watermark == "" {
		watermark = "PREVIEW"
	}
	return &Service{
		sessions:  sessions,
		renderer:  renderer,
		debouncer: NewDebouncer(debounce),
		watermark: watermark,
		scale:     scale,
		timeout:   5 * time.Second,
		log:       log.WithFields(map[string]interface{}{"component": "preview"}),
	}
}

// Render renders the current state of a form session with the preview
// watermark. scale overrides the configured zoom when positive.
func (s *Service) Render(ctx context.Context, sessionID, userID string, scale float64) (*Result, error) {
	fs, err := s.sessions.Get(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = s.scale
	}

	html, err := s.renderer.Render(fs.DocumentType, fs.TemplateID, documents.FormData(fs.Data), render.Options{
		Watermark: s.watermark,
		Scale:     scale,
	})
	if err != nil {
		return nil, err
	}
	metrics.PreviewRenders.Inc()

	return &Result{
		SessionID:    fs.ID,
		DocumentType: fs.DocumentType,
		TemplateID:   fs.TemplateID,
		Step:         fs.Step,
		HTML:         html,
		RenderedAt:   time.Now().UTC(),
	}, nil
}

// Schedule renders the session once edits from one connection have settled
// for the debounce window and hands the result to deliver. Edits arriving
// inside the window restart it. Each connection debounces on its own, so two
// tabs on the same form session never swallow each other's previews.
func (s *Service) Schedule(sessionID, connID, userID string, scale float64, deliver func(*Result, error)) {
	s.debouncer.Trigger(debounceKey(sessionID, connID), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		res, err := s.Render(ctx, sessionID, userID, scale)
		if err != nil {
			s.log.Warn("Preview render failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		deliver(res, err)
	})
}

// Cancel drops the pending render of one connection, used when it disconnects.
func (s *Service) Cancel(sessionID, connID string) {
	s.debouncer.Cancel(debounceKey(sessionID, connID))
}

// CancelSession drops the pending renders of every connection on a session.
func (s *Service) CancelSession(sessionID string) {
	s.debouncer.CancelPrefix(sessionID + "/")
}

func debounceKey(sessionID, connID string) string {
	return sessionID + "/" + connID
}

func (s *Service) Close() {
	s.debouncer.Stop()
}
