package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ridgelinehq/costcode/internal/coding"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/document"
	"github.com/ridgelinehq/costcode/internal/model"
)

// sandboxUser stamps audit fields on mutations. The sandbox has no auth, so
// every change is attributed to one fixed identity.
const sandboxUser = "coder@sandbox.local"

// transactionsPerPage sizes the placeholder statement PDFs.
const transactionsPerPage = 10

// Server serves the coding API against the sandbox store.
type Server struct {
	router *gin.Engine
	store  *Store
}

// NewServer wires the routes for a sandbox API over the given store.
func NewServer(store *Store) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	s := &Server{router: router, store: store}

	v1 := router.Group("/api/v1")
	v1.GET("/statements/:statementID/progress", s.getProgress)
	v1.GET("/statements/:statementID/cardholder/:cardholderID/pdf", s.getStatementPDF)
	v1.GET("/transactions", s.getTransactions)
	v1.GET("/transactions/:id", s.getTransaction)
	v1.POST("/transactions/:id/coding", s.postCoding)
	v1.POST("/transactions/:id/review", s.postReview)
	v1.POST("/transactions/bulk-coding", s.postBulkCoding)
	v1.GET("/email-templates", s.listTemplates)
	v1.POST("/email-templates", s.createTemplate)
	v1.PUT("/email-templates/:id", s.updateTemplate)
	v1.DELETE("/email-templates/:id", s.deleteTemplate)

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API on addr until the listener fails or ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Sandbox API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sandbox shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Sandbox request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// respondError maps store errors onto the API's status codes. The client maps
// them back to the same sentinels, so the taxonomy survives the round trip.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotCodable), errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.Error("Sandbox request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) getProgress(c *gin.Context) {
	prog, err := s.store.Progress(c.Request.Context(), c.Param("statementID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prog)
}

func (s *Server) getTransactions(c *gin.Context) {
	filter := model.TransactionFilter{
		CardholderStatementID: c.Query("cardholder_statement_id"),
	}

	if raw := c.Query("status"); raw != "" {
		status := model.TransactionStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", raw)})
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be a non-negative integer"})
			return
		}
		filter.Skip = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}

	txns, err := s.store.Transactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	c.JSON(http.StatusOK, txns)
}

func (s *Server) getTransaction(c *gin.Context) {
	txn, err := s.store.Transaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) postCoding(c *gin.Context) {
	var fields model.CodingFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := coding.Validate(fields); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errs.Error()})
		return
	}

	txn, err := s.store.ApplyCoding(c.Request.Context(), c.Param("id"), fields, sandboxUser)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) postReview(c *gin.Context) {
	var req struct {
		RejectionReason string `json:"rejection_reason"`
		Approved        bool   `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !req.Approved && strings.TrimSpace(req.RejectionReason) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "rejection requires a reason"})
		return
	}

	txn, err := s.store.ApplyReview(c.Request.Context(), c.Param("id"),
		req.Approved, req.RejectionReason, sandboxUser)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) postBulkCoding(c *gin.Context) {
	var req struct {
		TransactionIDs []string           `json:"transaction_ids"`
		CodingFields   model.CodingFields `json:"coding_fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := coding.Validate(req.CodingFields); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errs.Error()})
		return
	}

	updated, err := s.store.ApplyBulkCoding(c.Request.Context(),
		req.TransactionIDs, req.CodingFields, sandboxUser)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (s *Server) getStatementPDF(c *gin.Context) {
	ctx := c.Request.Context()
	statementID := c.Param("statementID")
	cardholderID := c.Param("cardholderID")

	cs, err := s.store.CardholderStatementFor(ctx, statementID, cardholderID)
	if err != nil {
		respondError(c, err)
		return
	}

	count, err := s.store.TransactionCount(ctx, cs.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	pages := 1 + (count+transactionsPerPage-1)/transactionsPerPage
	title := fmt.Sprintf("Statement %s / %s", statementID, cs.CardholderName)
	c.Data(http.StatusOK, "application/pdf", document.GeneratePDF(title, pages))
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.store.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []model.EmailTemplate{}
	}
	c.JSON(http.StatusOK, templates)
}

type templateRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (t templateRequest) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", common.ErrValidation)
	}
	return nil
}

func (s *Server) createTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	tmpl := model.EmailTemplate{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.store.CreateTemplate(c.Request.Context(), &tmpl); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (s *Server) updateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	existing, err := s.store.Template(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	existing.Name = req.Name
	existing.Subject = req.Subject
	existing.Body = req.Body
	if err := s.store.UpdateTemplate(ctx, existing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.store.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}
