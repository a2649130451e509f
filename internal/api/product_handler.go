package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
)

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GetProducts dispatches on ?action=list|single|featured|search.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	switch c.QueryParam("action") {
	case "", "list":
		products, err := h.catalog.ListProducts(ctx)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", products)
	case "single":
		id, err := queryID(c)
		if err != nil {
			return err
		}
		product, err := h.catalog.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", product)
	case "featured":
		products, err := h.catalog.FeaturedProducts(ctx)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", products)
	case "search":
		products, err := h.catalog.SearchProducts(ctx, c.QueryParam("q"))
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", products)
	default:
		return invalidAction("api.GetProducts")
	}
}
