package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
)

const imageField = "image"

// ListBooks godoc
// @Summary List the catalog
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Router /api/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.svc.ListBooks(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /api/books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.httpError(errs.ErrBookNotFound)
	}
	book, err := h.svc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// GetBookByBarcode godoc
// @Summary Find a book by barcode
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param code path string true "barcode"
// @Success 200 {object} model.Book
// @Failure 401,403,404 {object} echo.HTTPError
// @Router /api/books/by-barcode/{code} [get]
func (h *Handler) GetBookByBarcode(c echo.Context) error {
	book, err := h.svc.GetBookByBarcode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary Add a book to the catalog
// @Tags books
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param title formData string true "title"
// @Param author formData string true "author"
// @Param description formData string false "description"
// @Param genre formData string false "genre"
// @Param language formData string false "language"
// @Param barcode formData string false "barcode"
// @Param image formData file false "cover image"
// @Success 201 {object} model.Book
// @Failure 400,401,403,409 {object} echo.HTTPError
// @Router /api/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	r := c.Request()
	r.Body = http.MaxBytesReader(c.Response(), r.Body, h.maxUpload)

	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}

	var image *model.Upload
	if strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(imageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return badRequest(err)
		default:
			f, err := fh.Open()
			if err != nil {
				return badRequest(err)
			}
			defer f.Close()
			image = &model.Upload{Filename: fh.Filename, Content: f}
		}
	}

	book, err := h.svc.CreateBook(r.Context(), req, image)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// GetImage godoc
// @Summary Serve an uploaded cover image
// @Tags books
// @Param name path string true "file name"
// @Success 200 {file} file
// @Failure 404 {object} echo.HTTPError
// @Router /uploads/images/{name} [get]
func (h *Handler) GetImage(c echo.Context) error {
	path, err := h.images.Path(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	return c.File(path)
}
