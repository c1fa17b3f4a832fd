package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

type BookHandler struct {
	useCase *usecase.BookUseCase
	errs    errorResponder
}

func NewBookHandler(useCase *usecase.BookUseCase, errs errorResponder) *BookHandler {
	return &BookHandler{useCase: useCase, errs: errs}
}

func bookQuery(c *gin.Context) usecase.BookQuery {
	return usecase.BookQuery{
		Page:  c.Query("page"),
		Limit: c.Query("limit"),
		Q:     c.Query("q"),
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	var req usecase.BookRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	book, err := h.useCase.Create(c.Request.Context(), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusCreated, "Book created", book)
}

func (h *BookHandler) List(c *gin.Context) {
	page, err := h.useCase.List(c.Request.Context(), bookQuery(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}

	respondPage(c, "", page.Books, pageMeta{
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	})
}

func (h *BookHandler) ListByGenre(c *gin.Context) {
	page, err := h.useCase.ListByGenre(c.Request.Context(), c.Param("genre_id"), bookQuery(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}

	respondPage(c, fmt.Sprintf("Found %d books in \"%s\" genre", page.Total, page.Genre.Name), page.Books, pageMeta{
		Total:     page.Total,
		Page:      page.Page,
		Limit:     page.Limit,
		Pages:     page.Pages,
		GenreID:   page.Genre.ID,
		GenreName: page.Genre.Name,
	})
}

func (h *BookHandler) Get(c *gin.Context) {
	book, err := h.useCase.Get(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "", book)
}

func (h *BookHandler) Update(c *gin.Context) {
	var req usecase.BookRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.respond(c, err)
		return
	}

	book, err := h.useCase.Update(c.Request.Context(), c.Param("book_id"), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "Book updated", book)
}

func (h *BookHandler) Delete(c *gin.Context) {
	book, err := h.useCase.Delete(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	respond(c, http.StatusOK, "Book deleted (soft delete)", book)
}
