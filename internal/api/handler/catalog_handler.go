package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// CatalogHandler 馆藏模块 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListCollections 集合与分类列表
// GET /api/v1/collections
func (h *CatalogHandler) ListCollections(c *gin.Context) {
	collections, err := h.catalogSvc.ListCollections(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": collections})
}

// SubCollectionBooks 分类下的图书
// GET /api/v1/collections/:id/books
func (h *CatalogHandler) SubCollectionBooks(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	subID, ok := MustGetUUIDParam(c, "id", 12002, "分类不存在")
	if !ok {
		return
	}

	result, err := h.catalogSvc.SubCollectionBooks(c.Request.Context(), subID, &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, result)
}

// ListBooks 图书首页：检索或浏览集合，附带本会话首次的逾期提醒
// GET /api/v1/books?q=
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	var req dto.BookListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.catalogSvc.ListBooks(c.Request.Context(), userID, GetSessionID(c), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// GetBook 图书详情
// GET /api/v1/books/:id
func (h *CatalogHandler) GetBook(c *gin.Context) {
	bookID, ok := MustGetUUIDParam(c, "id", 12001, "图书不存在")
	if !ok {
		return
	}

	book, err := h.catalogSvc.GetBook(c.Request.Context(), bookID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, book)
}

// CreateBook 新增图书
// POST /api/v1/books
func (h *CatalogHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	book, err := h.catalogSvc.CreateBook(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, "图书已添加", book)
}

// UpdateBook 修改图书
// PUT /api/v1/books/:id
func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	bookID, ok := MustGetUUIDParam(c, "id", 12001, "图书不存在")
	if !ok {
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	book, err := h.catalogSvc.UpdateBook(c.Request.Context(), bookID, &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OKWithMessage(c, "图书信息已更新", book)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 12001, "图书不存在")
	case errors.Is(err, service.ErrSubCollectionNotFound):
		response.NotFound(c, 12002, "分类不存在")
	default:
		response.InternalError(c)
	}
}
