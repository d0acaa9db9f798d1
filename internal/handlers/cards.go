package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/telemetry"
)

// CatalogService is the catalog surface the card handlers depend on.
type CatalogService interface {
	Search(ctx context.Context, text string, page int, defaultOnly bool) (*catalog.SearchResult, error)
	ByID(ctx context.Context, id string) (*catalog.Entry, error)
	Languages(ctx context.Context, id string) ([]catalog.LanguagePrinting, error)
}

// CardsHandler handles the read-only card database endpoints.
type CardsHandler struct {
	catalog CatalogService
}

// NewCardsHandler creates a cards handler.
func NewCardsHandler(catalog CatalogService) *CardsHandler {
	return &CardsHandler{catalog: catalog}
}

// CardRef is a card id in a search result page.
type CardRef struct {
	ScryfallID string `json:"scryfall_id"`
}

// AllCardsResponse is one page of card database search results.
type AllCardsResponse struct {
	Cards  []CardRef `json:"cards"`
	Length int       `json:"length"`
}

// AllCards searches the card database.
// GET /api/all_cards?query=search&text=...&page=N&default=true
func (h *CardsHandler) AllCards(c *gin.Context) {
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
	defaultOnly := c.Query("default") == "true"

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

	result, err := h.catalog.Search(c.Request.Context(), text, page, defaultOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "failed to search cards"})
		return
	}

	telemetry.CatalogLookups.WithLabelValues("search").Inc()
	resp := AllCardsResponse{Cards: make([]CardRef, 0, len(result.IDs)), Length: result.Total}
	for _, id := range result.IDs {
		resp.Cards = append(resp.Cards, CardRef{ScryfallID: id})
	}
	c.JSON(http.StatusOK, resp)
}

// CardResponse describes one printing with its available finishes.
type CardResponse struct {
	ScryfallID string   `json:"scryfall_id"`
	Finishes   []string `json:"finishes"`
	ImageURI   string   `json:"image_uri"`
}

// ByID returns a single printing with its finishes.
// GET /api/by_id?scryfall_id=...
func (h *CardsHandler) ByID(c *gin.Context) {
	id := c.Query("scryfall_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"successful": false,
			"error":      `expected query param "scryfall_id"`,
		})
		return
	}

	entry, err := h.catalog.ByID(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"successful": false,
			"error":      "couldn't find card with provided scryfall_id \"" + id + "\"",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "failed to load card"})
		return
	}

	telemetry.CatalogLookups.WithLabelValues("by_id").Inc()
	c.JSON(http.StatusOK, CardResponse{
		ScryfallID: entry.ID,
		Finishes:   entry.Finishes,
		ImageURI:   entry.ImageURI,
	})
}

// Languages lists every language variant of the printing the given card id
// belongs to.
// GET /api/all_cards/languages?scryfall_id=...
func (h *CardsHandler) Languages(c *gin.Context) {
	id := c.Query("scryfall_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"successful": false,
			"error":      `expected query param "scryfall_id"`,
		})
		return
	}

	printings, err := h.catalog.Languages(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"successful": false,
			"error":      "couldn't find a card with scryfall_id \"" + id + "\"",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "failed to load languages"})
		return
	}
	telemetry.CatalogLookups.WithLabelValues("languages").Inc()
	c.JSON(http.StatusOK, printings)
}
