package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"
)

type createFormRequest struct {
	DocumentType string `json:"documentType" binding:"required"`
	TemplateID   string `json:"templateId"`
}

type updateFormRequest struct {
	Data       map[string]string `json:"data"`
	TemplateID string            `json:"templateId"`
}

type submitFormRequest struct {
	PaymentProvider models.PaymentProvider `json:"paymentProvider"`
	CouponCode      string                 `json:"couponCode"`
	IdempotencyKey  string                 `json:"idempotencyKey" binding:"required"`
	Email           string                 `json:"email"`
}

type submitResponse struct {
	FormSessionID      string `json:"formSessionId"`
	ProcessInstanceKey int64  `json:"processInstanceKey,omitempty"`
	Status             string `json:"status,omitempty"`
}

type formResponse struct {
	Form        *models.FormSession `json:"form"`
	Steps       []documents.Step    `json:"steps"`
	CurrentStep string              `json:"currentStep"`
	IsPreview   bool                `json:"isPreview"`
}

func newFormResponse(fs *models.FormSession) (*formResponse, error) {
	def, err := documents.Lookup(fs.DocumentType)
	if err != nil {
		return nil, err
	}
	step := fs.Step
	if step < 0 || step >= len(def.Steps) {
		step = 0
	}
	return &formResponse{
		Form:        fs,
		Steps:       def.Steps,
		CurrentStep: def.Steps[step].Name,
		IsPreview:   step == def.PreviewStep(),
	}, nil
}

func (s *Server) respondForm(c *gin.Context, status int, fs *models.FormSession) {
	resp, err := newFormResponse(fs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, resp)
}

func (s *Server) createForm(c *gin.Context) {
	var req createFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewInputParsingFailedError(err))
		return
	}
	fs, err := s.deps.Forms.Create(c.Request.Context(), currentUserID(c), req.DocumentType, req.TemplateID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondForm(c, http.StatusCreated, fs)
}

func (s *Server) getForm(c *gin.Context) {
	fs, err := s.deps.Forms.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondForm(c, http.StatusOK, fs)
}

func (s *Server) updateForm(c *gin.Context) {
	var req updateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewInputParsingFailedError(err))
		return
	}

	ctx := c.Request.Context()
	fs, err := s.deps.Forms.Update(ctx, c.Param("id"), currentUserID(c), req.Data)
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.TemplateID != "" && req.TemplateID != fs.TemplateID {
		def, err := documents.Lookup(fs.DocumentType)
		if err != nil {
			s.fail(c, err)
			return
		}
		if fs.TemplateID, err = def.ResolveTemplate(req.TemplateID); err != nil {
			s.fail(c, err)
			return
		}
		if err := s.deps.Forms.Save(ctx, fs); err != nil {
			s.fail(c, errors.NewCacheUnavailableError(err))
			return
		}
	}
	s.respondForm(c, http.StatusOK, fs)
}

func (s *Server) deleteForm(c *gin.Context) {
	ctx := c.Request.Context()
	fs, err := s.deps.Forms.Get(ctx, c.Param("id"), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Forms.Delete(ctx, fs.ID); err != nil {
		s.fail(c, errors.NewCacheUnavailableError(err))
		return
	}
	s.deps.Preview.CancelSession(fs.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) nextStep(c *gin.Context) {
	s.moveStep(c, func(def *documents.Definition, fs *models.FormSession) error {
		return documents.Next(def, fs)
	})
}

func (s *Server) previousStep(c *gin.Context) {
	s.moveStep(c, func(def *documents.Definition, fs *models.FormSession) error {
		documents.Back(def, fs)
		return nil
	})
}

func (s *Server) moveStep(c *gin.Context, move func(*documents.Definition, *models.FormSession) error) {
	ctx := c.Request.Context()
	fs, err := s.deps.Forms.Get(ctx, c.Param("id"), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	def, err := documents.Lookup(fs.DocumentType)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := move(def, fs); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Forms.Save(ctx, fs); err != nil {
		s.fail(c, errors.NewCacheUnavailableError(err))
		return
	}
	s.respondForm(c, http.StatusOK, fs)
}

func (s *Server) renderPreview(c *gin.Context) {
	var req struct {
		Scale float64 `json:"scale"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, errors.NewInputParsingFailedError(err))
			return
		}
	}
	res, err := s.deps.Preview.Render(c.Request.Context(), c.Param("id"), currentUserID(c), req.Scale)
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(res.HTML))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) uploadLogo(c *gin.Context) {
	maxBytes := s.cfg.Documents.MaxUploadBytes
	header, err := c.FormFile("file")
	if err != nil {
		s.fail(c, errors.NewFileRejectedError("multipart field \"file\" is required"))
		return
	}
	if header.Size > maxBytes {
		s.fail(c, errors.NewFileRejectedError(fmt.Sprintf("file exceeds %d bytes", maxBytes)))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.fail(c, errors.NewFileRejectedError(err.Error()))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		s.fail(c, errors.NewFileRejectedError(err.Error()))
		return
	}

	upload, err := documents.ValidateUpload(documents.UploadLogo, header.Filename, content, maxBytes)
	if err != nil {
		s.fail(c, err)
		return
	}
	fs, err := s.deps.Forms.Update(c.Request.Context(), c.Param("id"), currentUserID(c), map[string]string{
		"logoDataUri": upload.DataURI(),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondForm(c, http.StatusOK, fs)
}

// submitForm validates the whole form and starts the generation process.
func (s *Server) submitForm(c *gin.Context) {
	var req submitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewInputParsingFailedError(err))
		return
	}

	ctx := c.Request.Context()
	session := currentSession(c)
	fs, err := s.deps.Forms.Get(ctx, c.Param("id"), session.User.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	def, err := documents.Lookup(fs.DocumentType)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := def.Check(documents.FormData(fs.Data)); err != nil {
		s.fail(c, err)
		return
	}

	provider := req.PaymentProvider
	if provider == "" {
		provider = models.ProviderStripe
	}
	email := req.Email
	if email == "" {
		email = session.User.Email
	}

	// A repeated submit with the same key gets the first instance back.
	key := payments.SubmitKey(session.User.ID, req.IdempotencyKey)
	var recorded submitResponse
	fresh, err := s.deps.Submissions.Reserve(ctx, key, &recorded)
	if err != nil {
		if stderrors.Is(err, payments.ErrInFlight) {
			c.JSON(http.StatusAccepted, submitResponse{FormSessionID: fs.ID, Status: "processing"})
			return
		}
		s.fail(c, errors.NewCacheUnavailableError(err))
		return
	}
	if !fresh {
		s.log.Info("Duplicate submit replayed", map[string]interface{}{
			"formSessionId":      recorded.FormSessionID,
			"processInstanceKey": recorded.ProcessInstanceKey,
		})
		c.JSON(http.StatusAccepted, recorded)
		return
	}

	instance, err := s.deps.Engine.StartProcess(ctx, s.cfg.Camunda.ProcessID, map[string]interface{}{
		"formSessionId":   fs.ID,
		"userId":          session.User.ID,
		"userEmail":       email,
		"userToken":       session.BackendToken,
		"documentType":    fs.DocumentType,
		"templateId":      fs.TemplateID,
		"formData":        fs.Data,
		"paymentProvider": string(provider),
		"couponCode":      req.CouponCode,
		"idempotencyKey":  req.IdempotencyKey,
	})
	if err != nil {
		if relErr := s.deps.Submissions.Release(ctx, key); relErr != nil {
			s.log.Warn("Submit reservation release failed", map[string]interface{}{"error": relErr.Error()})
		}
		s.fail(c, err)
		return
	}

	resp := submitResponse{FormSessionID: fs.ID, ProcessInstanceKey: instance.ProcessInstanceKey}
	if err := s.deps.Submissions.Complete(ctx, key, resp); err != nil {
		s.log.Warn("Submit result not recorded", map[string]interface{}{"error": err.Error()})
	}

	s.log.Info("Document generation started", map[string]interface{}{
		"formSessionId":      fs.ID,
		"processInstanceKey": instance.ProcessInstanceKey,
	})
	c.JSON(http.StatusAccepted, resp)
}
