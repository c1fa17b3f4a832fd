package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

type GenreHandler struct {
	useCase *usecase.GenreUseCase
	errs    errorResponder
}

func NewGenreHandler(useCase *usecase.GenreUseCase, errs errorResponder) *GenreHandler {
	return &GenreHandler{useCase: useCase, errs: errs}
}

func (h *GenreHandler) Create(c *gin.Context) {
	var req usecase.GenreRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	genre, err := h.useCase.Create(c.Request.Context(), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusCreated, "Genre created", genre)
}

func (h *GenreHandler) List(c *gin.Context) {
	genres, err := h.useCase.List(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", genres)
}

func (h *GenreHandler) Get(c *gin.Context) {
	genre, err := h.useCase.Get(c.Request.Context(), c.Param("genre_id"))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", genre)
}

func (h *GenreHandler) Update(c *gin.Context) {
	var req usecase.GenreRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	genre, err := h.useCase.Update(c.Request.Context(), c.Param("genre_id"), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "Genre updated", genre)
}

func (h *GenreHandler) Delete(c *gin.Context) {
	genre, err := h.useCase.Delete(c.Request.Context(), c.Param("genre_id"))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "Genre deleted (soft delete)", genre)
}
