package handler

import (
	"net/http"

	"chicpos/internal/dto"
	"chicpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ClosuresHandler struct{ svc service.ClosureService }

func NewClosuresHandler(svc service.ClosureService) *ClosuresHandler {
	return &ClosuresHandler{svc: svc}
}

// Close godoc
// @Summary      Fecha o caixa do dia
// @Description  Consolida vendas, brindes, ajustes e atendimentos do dia (horário da loja). Sem corpo fecha o dia de hoje. Fechar o mesmo dia de novo gera outro fechamento.
// @Tags         closures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseDayRequest false "Dia YYYY-MM-DD"
// @Success      201  {object} dto.ClosureResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/closures [post]
func (h *ClosuresHandler) Close(c *gin.Context) {
	var req dto.CloseDayRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), actor(c), req.Day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClosuresHandler) History(c *gin.Context) {
	resp, err := h.svc.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClosuresHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
