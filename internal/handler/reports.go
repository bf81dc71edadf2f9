package handler

import (
	"net/http"

	"chicpos/internal/dto"
	"chicpos/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportsHandler serves the read-only views derived from the ledger.
type ReportsHandler struct {
	productivity service.ProductivityService
	trail        service.TrailService
}

func NewReportsHandler(productivity service.ProductivityService, trail service.TrailService) *ReportsHandler {
	return &ReportsHandler{productivity: productivity, trail: trail}
}

// Productivity godoc
// @Summary  Ranking de vendedores por rendimento por atendimento
// @Tags     reports
// @Produce  json
// @Security BearerAuth
// @Param    from query string false "RFC3339"
// @Param    to   query string false "RFC3339"
// @Success  200  {array} dto.ProductivityEntry
// @Router   /v1/productivity [get]
func (h *ReportsHandler) Productivity(c *gin.Context) {
	var q dto.ProductivityQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.productivity.RankSellers(c.Request.Context(), service.Window{From: q.From, To: q.To})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Trail godoc
// @Summary  Trilha financeira (entradas e saídas, mais recentes primeiro)
// @Tags     audit
// @Produce  json
// @Security BearerAuth
// @Success  200 {array} dto.TrailEntry
// @Router   /v1/audit/trail [get]
func (h *ReportsHandler) Trail(c *gin.Context) {
	resp, err := h.trail.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
