package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/parsers"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

// maxImportBytes caps the body of a bulk import.
const maxImportBytes = 4 << 20

type checkRequest struct {
	ListID string `json:"list_id" binding:"required"`
	URL    string `json:"url"`
}

type checkResponse struct {
	IsNG            bool    `json:"is_ng"`
	MatchedPattern  *string `json:"matched_pattern"`
	ExtractedDomain *string `json:"extracted_domain"`
}

type addPatternRequest struct {
	ListID  string `json:"list_id" binding:"required"`
	Pattern string `json:"pattern"`
}

type sendRuleRequest struct {
	ListID       string  `json:"list_id" binding:"required"`
	Label        string  `json:"label" binding:"required"`
	Kind         string  `json:"kind" binding:"required"`
	Weekdays     []int   `json:"weekdays"`
	TimeStart    *string `json:"time_start"`
	TimeEnd      *string `json:"time_end"`
	SpecificDate *string `json:"specific_date"`
	RangeStart   *string `json:"range_start"`
	RangeEnd     *string `json:"range_end"`
}

type updateSendRuleRequest struct {
	ListID  string `json:"list_id" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

type workRecordRequest struct {
	ListID     string `json:"list_id" binding:"required"`
	WorkerID   string `json:"worker_id" binding:"required"`
	CompanyURL string `json:"company_url"`
	Status     string `json:"status" binding:"required"`
	Note       string `json:"note"`
}

func (h *Handlers) checkDomain(c *gin.Context) {
	var req checkRequest
	if !bind(c, &req) {
		return
	}
	dec, err := h.blocklist.Check(c.Request.Context(), req.ListID, req.URL)
	if err != nil {
		h.internalError(c, err, "blocklist check failed")
		return
	}
	resp := checkResponse{IsNG: dec.Blocked}
	if dec.Domain != "" {
		resp.ExtractedDomain = &dec.Domain
	}
	if dec.Blocked {
		resp.MatchedPattern = &dec.MatchedPattern
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) addPattern(c *gin.Context) {
	var req addPatternRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.blocklist.Add(c.Request.Context(), req.ListID, req.Pattern)
	var perr *domain.PatternError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, p)
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error(), "code": perr.Code()})
	case errors.Is(err, blocklist.ErrDuplicatePattern):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "duplicate_pattern"})
	default:
		h.internalError(c, err, "add pattern failed")
	}
}

// importPatterns reads a plain text body, one pattern per line, or an
// /etc/hosts style file when format=hosts.
func (h *Handlers) importPatterns(c *gin.Context) {
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	parse := parsers.ParsePlainList
	switch c.DefaultQuery("format", "plain") {
	case "plain":
	case "hosts":
		parse = parsers.ParseHostsFile
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be plain or hosts"})
		return
	}
	entries, err := parse(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes), h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.blocklist.Import(c.Request.Context(), listID, entries)
	if err != nil {
		h.internalError(c, err, "import patterns failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) blocklistStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.blocklist.RepoStats())
}

func (h *Handlers) listPatterns(c *gin.Context) {
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	ps, err := h.blocklist.List(c.Request.Context(), listID)
	if err != nil {
		h.internalError(c, err, "list patterns failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(ps)})
}

func (h *Handlers) deletePattern(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	err := h.blocklist.Delete(c.Request.Context(), listID, id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, blocklist.ErrPatternNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err, "delete pattern failed")
	}
}

func (h *Handlers) createSendRule(c *gin.Context) {
	var req sendRuleRequest
	if !bind(c, &req) {
		return
	}
	row, err := h.sendRules.Create(c.Request.Context(), domain.SendRuleRow{
		ListID:       req.ListID,
		Label:        strings.TrimSpace(req.Label),
		Kind:         req.Kind,
		Weekdays:     req.Weekdays,
		TimeStart:    req.TimeStart,
		TimeEnd:      req.TimeEnd,
		SpecificDate: req.SpecificDate,
		RangeStart:   req.RangeStart,
		RangeEnd:     req.RangeEnd,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, row)
	case errors.Is(err, domain.ErrInvalidSendRule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err, "create send rule failed")
	}
}

func (h *Handlers) listSendRules(c *gin.Context) {
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	rows, err := h.sendRules.List(c.Request.Context(), listID)
	if err != nil {
		h.internalError(c, err, "list send rules failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(rows)})
}

func (h *Handlers) updateSendRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateSendRuleRequest
	if !bind(c, &req) {
		return
	}
	row, err := h.sendRules.SetEnabled(c.Request.Context(), req.ListID, id, *req.Enabled)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, row)
	case errors.Is(err, gate.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err, "update send rule failed")
	}
}

func (h *Handlers) deleteSendRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	err := h.sendRules.Delete(c.Request.Context(), listID, id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, gate.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err, "delete send rule failed")
	}
}

func (h *Handlers) createWorkRecord(c *gin.Context) {
	var req workRecordRequest
	if !bind(c, &req) {
		return
	}
	rec, err := h.workRecords.Create(c.Request.Context(), gate.CreateWorkRecord{
		ListID:     req.ListID,
		WorkerID:   req.WorkerID,
		CompanyURL: req.CompanyURL,
		Status:     req.Status,
		Note:       req.Note,
	})
	var violation *gate.SendTimingViolation
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.As(err, &violation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   gate.ErrSendTimingViolation.Error(),
			"reason":  violation.Label,
			"rule_id": violation.RuleID,
		})
	case errors.Is(err, domain.ErrInvalidWorkRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err, "create work record failed")
	}
}

func (h *Handlers) listWorkRecords(c *gin.Context) {
	listID, ok := listIDQuery(c)
	if !ok {
		return
	}
	recs, err := h.workRecords.List(c.Request.Context(), listID)
	if err != nil {
		h.internalError(c, err, "list work records failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(recs)})
}

func (h *Handlers) internalError(c *gin.Context, err error, msg string) {
	h.logger.Error(map[string]any{"error": err, "path": c.FullPath()}, msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// bind decodes the JSON body and writes a 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func listIDQuery(c *gin.Context) (string, bool) {
	listID := strings.TrimSpace(c.Query("list_id"))
	if listID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "list_id is required"})
		return "", false
	}
	return listID, true
}

// nonNil keeps empty collections encoded as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
