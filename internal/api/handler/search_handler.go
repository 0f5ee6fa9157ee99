package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const (
	defaultSearchSize = 20
	// maxSearchWindow matches the index's default max_result_window.
	maxSearchWindow = 10000
)

// SearchHandler serves full-text product search.
type SearchHandler struct {
	searcher ports.ProductSearcher
}

func NewSearchHandler(searcher ports.ProductSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles GET /products/search?q=&page=&size=.
//
// @Summary      Search products
// @Tags         products
// @Produce      json
// @Param        q     query     string  true   "Search text"
// @Param        page  query     int     false  "Page, from 1; page*size at most 10000"
// @Param        size  query     int     false  "Page size, at most 100"
// @Success      200   {object}  searchResponse
// @Failure      400   {object}  map[string]string
// @Router       /products/search [get]
func (h *SearchHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Size == 0 {
		req.Size = defaultSearchSize
	}
	if req.Page > maxSearchWindow/req.Size {
		return fmt.Errorf("%w: page*size must not exceed %d", domain.ErrValidation, maxSearchWindow)
	}

	res, err := h.searcher.Search(c.Request().Context(), req.Query, (req.Page-1)*req.Size, req.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchResponse{
		Total:    res.Total,
		Page:     req.Page,
		Size:     req.Size,
		Products: toProductResponses(res.Products),
	})
}
