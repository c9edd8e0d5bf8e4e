package handlers

import (
	"context"
	"errors"

	"investorconnect/internal/docstore"
	"investorconnect/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DocumentService is the part of services.DocumentService the handler uses
type DocumentService interface {
	Get(ctx context.Context, collection, id string) (docstore.Document, error)
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error)
}

// DocumentHandler exposes the document store over HTTP
type DocumentHandler struct {
	documentService DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// WriteRequest carries the document fields for add and set
type WriteRequest struct {
	Data map[string]interface{} `json:"data"`
}

// QueryRequest is the body of a collection query
type QueryRequest struct {
	Filters []docstore.Filter `json:"filters"`
	OrderBy *docstore.Order   `json:"order_by"`
	Limit   int               `json:"limit"`
}

// Get returns one document
// @Summary Get document
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection name"
// @Param id path string true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /collections/{collection}/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	doc, err := h.documentService.Get(c.UserContext(), c.Params("collection"), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to get document")
	}
	return response.Success(c, "Document retrieved successfully", doc)
}

// Add stores a document under a generated id
// @Summary Add document
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name"
// @Param body body WriteRequest true "Document fields"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /collections/{collection}/documents [post]
func (h *DocumentHandler) Add(c *fiber.Ctx) error {
	var req WriteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Data == nil {
		return response.BadRequest(c, "Document data is required")
	}

	id, err := h.documentService.Add(c.UserContext(), c.Params("collection"), req.Data)
	if err != nil {
		return h.fail(c, err, "Failed to add document")
	}
	return response.Created(c, "Document created successfully", fiber.Map{"id": id})
}

// Set creates or replaces the document at id
// @Summary Set document
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name"
// @Param id path string true "Document ID"
// @Param body body WriteRequest true "Document fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /collections/{collection}/documents/{id} [put]
func (h *DocumentHandler) Set(c *fiber.Ctx) error {
	var req WriteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Data == nil {
		return response.BadRequest(c, "Document data is required")
	}

	id := c.Params("id")
	if err := h.documentService.Set(c.UserContext(), c.Params("collection"), id, req.Data); err != nil {
		return h.fail(c, err, "Failed to set document")
	}
	return response.Success(c, "Document saved successfully", fiber.Map{"id": id})
}

// Query runs an equality/order/limit query over one collection
// @Summary Query collection
// @Description Equality filters, one order field and a limit. Composite queries need a declared index (412 otherwise).
// @Tags Documents
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param body body QueryRequest false "Query"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 412 {object} response.Response
// @Router /collections/{collection}/query [post]
func (h *DocumentHandler) Query(c *fiber.Ctx) error {
	var req QueryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	docs, err := h.documentService.Query(c.UserContext(), docstore.Query{
		Collection: c.Params("collection"),
		Filters:    req.Filters,
		OrderBy:    req.OrderBy,
		Limit:      req.Limit,
	})
	if err != nil {
		return h.fail(c, err, "Failed to query documents")
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	return response.Success(c, "Documents retrieved successfully", fiber.Map{"documents": docs})
}

func (h *DocumentHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return response.NotFound(c, "Document not found")
	case errors.Is(err, docstore.ErrIndexRequired):
		return response.PreconditionFailed(c, err.Error())
	case errors.Is(err, docstore.ErrInvalidQuery):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}
