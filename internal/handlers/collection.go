package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/collection"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/middleware"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/telemetry"
)

// CollectionService is the ledger surface the collection handlers depend on.
type CollectionService interface {
	Add(ctx context.Context, p collection.AddParams) (*collection.AddResult, error)
	Repoint(ctx context.Context, userID string, target collection.LineKey, patch collection.Patch) (*collection.RepointResult, error)
	Search(ctx context.Context, userID, text string, page int) (*collection.SearchResult, error)
	ExportXLSX(ctx context.Context, userID string, w io.Writer) error
}

// CollectionHandler handles the owned-collection endpoints.
type CollectionHandler struct {
	svc CollectionService
}

// NewCollectionHandler creates a collection handler.
func NewCollectionHandler(svc CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// Get searches the authenticated user's collection.
// GET /api/collection?query=search&text=...&page=N
func (h *CollectionHandler) Get(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"successful": false,
				"error":      "expected query param \"page\" to be a non-negative integer",
			})
			return
		}
	}

	text := ""
	if query := c.Query("query"); query != "" {
		if query != "search" {
			c.JSON(http.StatusBadRequest, gin.H{
				"successful": false,
				"error":      `unsupported value for query parameter "query", expected "search", got ` + query,
			})
			return
		}
		text = c.Query("text")
	}

	result, err := h.svc.Search(c.Request.Context(), middleware.UserID(c), text, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "failed to search collection"})
		return
	}
	telemetry.CollectionSearches.Inc()
	c.JSON(http.StatusOK, result)
}

// AddResponse is the response to a collection add.
type AddResponse struct {
	Successful bool `json:"successful"`
	Delta      int  `json:"delta"`
	NewTotal   int  `json:"new_total"`
}

// Post adds (or removes, via a negative quantity) copies of a card variant.
// POST /api/collection
func (h *CollectionHandler) Post(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"successful": false, "error": "expected a JSON object body"})
		return
	}

	params := collection.AddParams{UserID: middleware.UserID(c)}
	var ferr *FieldError
	if params.CardID, ferr = requireString(body, "scryfall_id"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Quantity, ferr = requireInt(body, "quantity"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Finish, ferr = requireString(body, "finish"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Condition, ferr = requireString(body, "condition"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	// The printing's language is implied by the card id; the field is still
	// required so a client that thinks it is setting a language finds out
	// the id is what decides it.
	if _, ferr = requireString(body, "language"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Signed, ferr = requireBool(body, "signed"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Altered, ferr = requireBool(body, "altered"); ferr != nil {
		fieldError(c, ferr)
		return
	}
	if params.Notes, ferr = requireString(body, "notes"); ferr != nil {
		fieldError(c, ferr)
		return
	}

	result, err := h.svc.Add(c.Request.Context(), params)
	if err != nil {
		ledgerError(c, err)
		return
	}

	telemetry.CollectionMutations.WithLabelValues("add").Inc()
	c.JSON(http.StatusOK, AddResponse{Successful: true, Delta: result.Delta, NewTotal: result.NewTotal})
}

// RepointRequest retargets an existing line to a new variant key.
type RepointRequest struct {
	Target      *RepointTarget   `json:"target"`
	Replacement *collection.Patch `json:"replacement"`
}

// RepointTarget is the full key of the line being repointed. Every field is
// required; a pointer distinguishes a missing field from a zero value.
type RepointTarget struct {
	ScryfallID *string `json:"scryfall_id"`
	Finish     *string `json:"finish"`
	Condition  *string `json:"condition"`
	Signed     *bool   `json:"signed"`
	Altered    *bool   `json:"altered"`
	Notes      *string `json:"notes"`
}

// RepointResponse is the response to a collection repoint.
type RepointResponse struct {
	Successful bool `json:"successful"`
	Merged     bool `json:"merged"`
	Quantity   int  `json:"quantity"`
}

// Patch rewrites the key fields of an existing collection line.
// PATCH /api/collection
func (h *CollectionHandler) Patch(c *gin.Context) {
	var req RepointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"successful": false, "error": "expected a JSON object body"})
		return
	}
	if req.Target == nil {
		fieldError(c, &FieldError{Field: "target", Expected: "object", Missing: true})
		return
	}
	if req.Replacement == nil {
		fieldError(c, &FieldError{Field: "replacement", Expected: "object", Missing: true})
		return
	}

	target := collection.LineKey{}
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"target.scryfall_id", req.Target.ScryfallID != nil},
		{"target.finish", req.Target.Finish != nil},
		{"target.condition", req.Target.Condition != nil},
		{"target.signed", req.Target.Signed != nil},
		{"target.altered", req.Target.Altered != nil},
		{"target.notes", req.Target.Notes != nil},
	} {
		if !f.ok {
			fieldError(c, &FieldError{Field: f.name, Expected: "value", Missing: true})
			return
		}
	}
	target.CardID = *req.Target.ScryfallID
	target.Finish = *req.Target.Finish
	target.Condition = *req.Target.Condition
	target.Signed = *req.Target.Signed
	target.Altered = *req.Target.Altered
	target.Notes = *req.Target.Notes

	result, err := h.svc.Repoint(c.Request.Context(), middleware.UserID(c), target, *req.Replacement)
	if err != nil {
		ledgerError(c, err)
		return
	}

	telemetry.CollectionMutations.WithLabelValues("repoint").Inc()
	c.JSON(http.StatusOK, RepointResponse{Successful: true, Merged: result.Merged, Quantity: result.Quantity})
}

// Export downloads the whole collection as a spreadsheet.
// GET /api/collection/export
func (h *CollectionHandler) Export(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="collection.xlsx"`)
	if err := h.svc.ExportXLSX(c.Request.Context(), middleware.UserID(c), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "failed to export collection"})
	}
}

func fieldError(c *gin.Context, ferr *FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"successful": false,
		"error":      ferr.Error(),
		"field":      ferr.Field,
	})
}

// ledgerError maps ledger errors onto structured responses. Validation and
// not-found failures never mutate state, so they are safe to surface
// directly.
func ledgerError(c *gin.Context, err error) {
	var unsupported *collection.UnsupportedFinishError
	var invalidCondition *collection.InvalidConditionError
	switch {
	case errors.Is(err, collection.ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"successful": false, "error": "couldn't find a card with that id"})
	case errors.Is(err, collection.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"successful": false, "error": "target line not found"})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"successful": false, "error": unsupported.Error()})
	case errors.As(err, &invalidCondition):
		c.JSON(http.StatusBadRequest, gin.H{"successful": false, "error": invalidCondition.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "collection update failed"})
	}
}
