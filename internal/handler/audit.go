package handler

import (
	"net/http"

	"chicpos/internal/dto"
	"chicpos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

// List godoc
// @Summary  Registros de auditoria, mais recentes primeiro
// @Tags     audit
// @Produce  json
// @Security BearerAuth
// @Param    q query string false "Filtro por ação, descrição ou autor"
// @Success  200 {array} dto.AuditLogResponse
// @Router   /v1/audit/logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuditHandler) Record(c *gin.Context) {
	var req dto.RecordAuditRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
