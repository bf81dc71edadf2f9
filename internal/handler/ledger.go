package handler

import (
	"net/http"
	"strings"

	"chicpos/internal/apierror"
	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"
	"chicpos/internal/service"

	"github.com/gin-gonic/gin"
)

// LedgerHandler exposes the append-only ledger: one POST per event kind plus
// the filtered read.
type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

// record binds req, hands it to fn with the caller's identity and answers 201.
func record[T any](c *gin.Context, fn func(service.Actor, T) (*dto.AppendResponse, error)) {
	var req T
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := fn(actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RecordSale godoc
// @Summary      Registra uma venda
// @Description  Grava a venda e o atendimento do vendedor. Preço diferente do catálogo exige observação no item.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Venda"
// @Success      201  {object} dto.AppendResponse
// @Failure      422  {object} apierror.ValidationError
// @Failure      500  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreateSaleRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordSale(c.Request.Context(), a, req)
	})
}

// RecordAttendance godoc
// @Summary  Registra um atendimento sem venda
// @Tags     ledger
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body dto.CreateAttendanceRequest true "Atendimento"
// @Success  201  {object} dto.AppendResponse
// @Router   /v1/attendances [post]
func (h *LedgerHandler) RecordAttendance(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreateAttendanceRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordAttendance(c.Request.Context(), a, req)
	})
}

// RecordAdjustment godoc
// @Summary  Registra sobra ou falta de caixa
// @Tags     ledger
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body dto.CreateAdjustmentRequest true "Ajuste"
// @Success  201  {object} dto.AppendResponse
// @Router   /v1/adjustments [post]
func (h *LedgerHandler) RecordAdjustment(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreateAdjustmentRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordAdjustment(c.Request.Context(), a, req)
	})
}

// RecordGift godoc
// @Summary  Registra um brinde
// @Tags     ledger
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body dto.CreateGiftRequest true "Brinde"
// @Success  201  {object} dto.AppendResponse
// @Router   /v1/gifts [post]
func (h *LedgerHandler) RecordGift(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreateGiftRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordGift(c.Request.Context(), a, req)
	})
}

func (h *LedgerHandler) RecordExpense(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreateExpenseRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordExpense(c.Request.Context(), a, req)
	})
}

func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	resp, err := h.svc.ListExpenses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	record(c, func(a service.Actor, req dto.CreatePurchaseRequest) (*dto.AppendResponse, error) {
		return h.svc.RecordPurchase(c.Request.Context(), a, req)
	})
}

// ImportPurchase godoc
// @Summary      Importa uma NF-e de compra
// @Description  Lê o XML da nota (campo multipart "file") e registra a compra.
// @Tags         ledger
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "XML da NF-e"
// @Success      201  {object} dto.AppendResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/purchases/import [post]
func (h *LedgerHandler) ImportPurchase(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Arquivo XML obrigatório no campo 'file'"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Não foi possível ler o arquivo enviado"))
		return
	}
	defer f.Close()

	resp, err := h.svc.ImportPurchase(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Query godoc
// @Summary      Consulta o livro-caixa
// @Description  Eventos em ordem cronológica. Janela semiaberta: from <= occurred_at < to.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        kind query []string false "SALE | ADJUSTMENT | GIFT | EXPENSE | PURCHASE" collectionFormat(multi)
// @Param        from query string   false "RFC3339"
// @Param        to   query string   false "RFC3339"
// @Success      200  {array}  dto.LedgerEventResponse
// @Router       /v1/ledger [get]
func (h *LedgerHandler) Query(c *gin.Context) {
	var q dto.LedgerFilter
	if !bindQuery(c, &q) {
		return
	}
	filter := repository.EventFilter{From: q.From, To: q.To}
	for _, raw := range q.Kinds {
		for _, k := range strings.Split(raw, ",") {
			kind := model.EventKind(strings.ToUpper(strings.TrimSpace(k)))
			if !kind.Valid() {
				c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"kind": "tipo de evento desconhecido: " + k}))
				return
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}

	out := []dto.LedgerEventResponse{}
	for ev, err := range h.svc.Query(c.Request.Context(), filter) {
		if err != nil {
			respondError(c, err)
			return
		}
		out = append(out, service.EventToResponse(ev))
	}
	c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	kind := model.EventKind(strings.ToUpper(c.Param("kind")))
	ev, err := h.svc.FindEvent(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.EventToResponse(ev))
}
