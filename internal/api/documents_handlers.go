package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/repository"
)

// listDocuments searches the caller's document history. q selects full-text
// search, type filters by document type.
func (s *Server) listDocuments(c *gin.Context) {
	q := repository.DocumentQuery{
		QueryType:    models.QueryTypeUserHistory,
		UserID:       currentUserID(c),
		DocumentType: c.Query("type"),
		Text:         c.Query("q"),
		From:         atoiDefault(c.Query("from"), 0),
		Size:         atoiDefault(c.Query("size"), s.cfg.Search.MaxResults),
	}
	switch {
	case q.Text != "":
		q.QueryType = models.QueryTypeFullText
	case q.DocumentType != "":
		q.QueryType = models.QueryTypeByDocType
	}

	page, err := s.deps.Documents.Search(c.Request.Context(), q)
	if err != nil {
		s.fail(c, errors.NewSearchQueryFailedError(s.cfg.Search.DocumentsIndex, err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) downloadDocument(c *gin.Context) {
	id := c.Param("id")
	doc, err := s.deps.Documents.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		if stderrors.Is(err, repository.ErrDocumentNotFound) {
			s.fail(c, errors.NewDocumentNotFoundError(id))
			return
		}
		s.fail(c, errors.NewDatabaseQueryFailedError("document_by_id", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
