package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

type TransactionHandler struct {
	useCase *usecase.TransactionUseCase
	errs    errorResponder
}

func NewTransactionHandler(useCase *usecase.TransactionUseCase, errs errorResponder) *TransactionHandler {
	return &TransactionHandler{useCase: useCase, errs: errs}
}

type createTransactionRequest struct {
	// Items stays raw so that its shape is validated item by item.
	Items json.RawMessage `json:"items"`
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("user_id", userID))

	order, err := h.useCase.CreateTransaction(ctx, userID, req.Items)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusCreated, "Transaction created successfully", order)
}

func (h *TransactionHandler) List(c *gin.Context) {
	orders, err := h.useCase.List(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", orders)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	order, err := h.useCase.Get(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

func (h *TransactionHandler) Statistics(c *gin.Context) {
	stats, err := h.useCase.Statistics(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
