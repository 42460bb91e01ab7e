package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"product-catalog/internal/catalog"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage = 0
	defaultSize = 10
)

type CatalogService interface {
	List(ctx context.Context, req catalog.PageRequest) (catalog.Page, error)
	Get(ctx context.Context, id int64) (catalog.Product, error)
	Create(ctx context.Context, in catalog.CreateProduct) (catalog.Product, error)
	Update(ctx context.Context, id int64, in catalog.ProductUpdate) (catalog.Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, term string, page, size int) (catalog.Page, error)
	ByCategory(ctx context.Context, category string, page, size int) (catalog.Page, error)
	Categories(ctx context.Context) ([]string, error)
	LowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
	PriceRange(ctx context.Context, min, max float64, page, size int) (catalog.Page, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
}

type Handler struct {
	service CatalogService
}

func NewHandler(svc CatalogService) *Handler {
	return &Handler{service: svc}
}

type errorResponse struct {
	Error string `json:"error" example:"product not found"`
}

type validationResponse struct {
	Error      string                   `json:"error" example:"validation failed"`
	Violations []catalog.FieldViolation `json:"violations"`
}

type countResponse struct {
	Category string `json:"category" example:"Electronics"`
	Count    int64  `json:"count" example:"7"`
}

// ListProducts godoc
// @Summary      List products with pagination and sorting
// @Tags         products
// @Produce      json
// @Param        page     query     int     false  "Page number (zero-based)"  default(0)
// @Param        size     query     int     false  "Items per page"            default(10)
// @Param        sortBy   query     string  false  "Sort field"                default(name)
// @Param        sortDir  query     string  false  "asc or desc"               default(asc)
// @Success      200      {object}  catalog.Page
// @Failure      400      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /api/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	req := catalog.PageRequest{
		Page:    parseQueryInt(c.Query("page"), defaultPage),
		Size:    parseQueryInt(c.Query("size"), defaultSize),
		SortBy:  c.DefaultQuery("sortBy", "name"),
		SortDir: c.DefaultQuery("sortDir", catalog.SortAsc),
	}

	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err, "failed to list products")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProduct godoc
// @Summary      Get a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  catalog.Product
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "failed to get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct godoc
// @Summary      Create a new product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      catalog.CreateProduct  true  "Product data"
// @Success      201   {object}  catalog.Product
// @Failure      400   {object}  validationResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var in catalog.CreateProduct
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	product, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.renderError(c, err, "failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary      Partially update a product
// @Description  Only the fields present in the body are changed; omitted fields keep their stored values.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Product ID"
// @Param        body  body      catalog.ProductUpdate  true  "Fields to update"
// @Success      200   {object}  catalog.Product
// @Failure      400   {object}  validationResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in catalog.ProductUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	product, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		h.renderError(c, err, "failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary      Delete a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "Product ID"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "failed to delete product")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, errorResponse{Error: catalog.ErrNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchProducts godoc
// @Summary      Search products by name or description
// @Tags         products
// @Produce      json
// @Param        q     query     string  true   "Search term"
// @Param        page  query     int     false  "Page number (zero-based)"  default(0)
// @Param        size  query     int     false  "Items per page"            default(10)
// @Success      200   {object}  catalog.Page
// @Failure      500   {object}  errorResponse
// @Router       /api/products/search [get]
func (h *Handler) SearchProducts(c *gin.Context) {
	page, err := h.service.Search(
		c.Request.Context(),
		c.Query("q"),
		parseQueryInt(c.Query("page"), defaultPage),
		parseQueryInt(c.Query("size"), defaultSize),
	)
	if err != nil {
		h.renderError(c, err, "failed to search products")
		return
	}
	c.JSON(http.StatusOK, page)
}

// ProductsByCategory godoc
// @Summary      List products in a category
// @Tags         products
// @Produce      json
// @Param        category  path      string  true   "Category (case-insensitive)"
// @Param        page      query     int     false  "Page number (zero-based)"  default(0)
// @Param        size      query     int     false  "Items per page"            default(10)
// @Success      200       {object}  catalog.Page
// @Failure      500       {object}  errorResponse
// @Router       /api/products/category/{category} [get]
func (h *Handler) ProductsByCategory(c *gin.Context) {
	page, err := h.service.ByCategory(
		c.Request.Context(),
		c.Param("category"),
		parseQueryInt(c.Query("page"), defaultPage),
		parseQueryInt(c.Query("size"), defaultSize),
	)
	if err != nil {
		h.renderError(c, err, "failed to list category")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CountCategory godoc
// @Summary      Count products in a category
// @Tags         products
// @Produce      json
// @Param        category  path      string  true  "Category (case-insensitive)"
// @Success      200       {object}  countResponse
// @Failure      500       {object}  errorResponse
// @Router       /api/products/category/{category}/count [get]
func (h *Handler) CountCategory(c *gin.Context) {
	category := c.Param("category")
	count, err := h.service.CountByCategory(c.Request.Context(), category)
	if err != nil {
		h.renderError(c, err, "failed to count category")
		return
	}
	c.JSON(http.StatusOK, countResponse{Category: category, Count: count})
}

// ListCategories godoc
// @Summary      List distinct product categories
// @Tags         products
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  errorResponse
// @Router       /api/products/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		h.renderError(c, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// LowStockProducts godoc
// @Summary      List products with stock at or below a threshold
// @Tags         products
// @Produce      json
// @Param        threshold  query     int  false  "Stock threshold"  default(5)
// @Success      200        {array}   catalog.Product
// @Failure      500        {object}  errorResponse
// @Router       /api/products/low-stock [get]
func (h *Handler) LowStockProducts(c *gin.Context) {
	threshold := parseQueryInt(c.Query("threshold"), catalog.DefaultLowStockThreshold)
	items, err := h.service.LowStock(c.Request.Context(), threshold)
	if err != nil {
		h.renderError(c, err, "failed to list low stock products")
		return
	}
	c.JSON(http.StatusOK, items)
}

// ProductsByPriceRange godoc
// @Summary      List products priced within a range
// @Tags         products
// @Produce      json
// @Param        min   query     number  true   "Minimum price (inclusive)"
// @Param        max   query     number  true   "Maximum price (inclusive)"
// @Param        page  query     int     false  "Page number (zero-based)"  default(0)
// @Param        size  query     int     false  "Items per page"            default(10)
// @Success      200   {object}  catalog.Page
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products/price-range [get]
func (h *Handler) ProductsByPriceRange(c *gin.Context) {
	min, errMin := strconv.ParseFloat(c.Query("min"), 64)
	max, errMax := strconv.ParseFloat(c.Query("max"), 64)
	if errMin != nil || errMax != nil || min < 0 || max < min {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid price range"})
		return
	}

	page, err := h.service.PriceRange(
		c.Request.Context(),
		min, max,
		parseQueryInt(c.Query("page"), defaultPage),
		parseQueryInt(c.Query("size"), defaultSize),
	)
	if err != nil {
		h.renderError(c, err, "failed to list price range")
		return
	}
	c.JSON(http.StatusOK, page)
}

// renderError maps the service error taxonomy onto HTTP statuses: validation
// and sort errors are the caller's fault, a missing id is 404, anything else
// is an infrastructure failure and stays opaque to the client.
func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationResponse{Error: "validation failed", Violations: verr.Violations})
	case errors.Is(err, catalog.ErrInvalidSortField):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: catalog.ErrNotFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}

func parseQueryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
