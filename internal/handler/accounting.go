package handler

import (
	"bytes"
	"net/http"

	"chicpos/internal/dto"
	"chicpos/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AccountingHandler struct {
	dre      service.DREService
	settings service.SettingsService
	export   service.ExportService
}

func NewAccountingHandler(dre service.DREService, settings service.SettingsService, export service.ExportService) *AccountingHandler {
	return &AccountingHandler{dre: dre, settings: settings, export: export}
}

// DRE godoc
// @Summary      Demonstração do resultado do mês
// @Description  Receita, impostos, MDR, despesas, CMV e lucro líquido. rates=effective usa as taxas vigentes no fim do mês.
// @Tags         accounting
// @Produce      json
// @Security     BearerAuth
// @Param        month query int    true  "1-12"
// @Param        year  query int    true  "Ano"
// @Param        rates query string false "current | effective"
// @Success      200   {object} dto.DREResponse
// @Failure      422   {object} apierror.ValidationError
// @Router       /v1/accounting/dre [get]
func (h *AccountingHandler) DRE(c *gin.Context) {
	var q dto.DREQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.dre.Calculate(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountingHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.SettingsToResponse(s))
}

// UpdateSettings godoc
// @Summary  Altera taxas e impostos
// @Description Grava uma nova revisão; as anteriores ficam no histórico.
// @Tags     accounting
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body dto.UpdateSettingsRequest true "Taxas (0-1)"
// @Success  200  {object} dto.SettingsResponse
// @Router   /v1/accounting/settings [put]
func (h *AccountingHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.settings.Update(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountingHandler) SettingsHistory(c *gin.Context) {
	resp, err := h.settings.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary  Planilha de fechamento contábil do mês
// @Tags     accounting
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param    month query int true "1-12"
// @Param    year  query int true "Ano"
// @Success  200
// @Router   /v1/accounting/export [get]
func (h *AccountingHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if !bindQuery(c, &q) {
		return
	}
	wb, err := h.export.MonthlyClosing(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, int64(len(wb.Data)), xlsxContentType, bytes.NewReader(wb.Data), map[string]string{
		"Content-Disposition": `attachment; filename="` + wb.FileName + `"`,
	})
}
