package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/quickbasket/internal/catalog"
	"github.com/example/quickbasket/internal/infrastructure/store"
)

// Catalog handlers: products, categories, banners, reviews.

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProductFilter{
		CategoryID: q.Get("category_id"),
		MinPrice:   queryInt(r, "min_price"),
		MaxPrice:   queryInt(r, "max_price"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// SearchProducts ranks matches by relevance unless another sort is asked
// for.
func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		CategoryID string `json:"category_id"`
		MinPrice   int    `json:"min_price"`
		MaxPrice   int    `json:"max_price"`
		SortBy     string `json:"sort_by"`
		Limit      int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.catalog.Search(r.Context(), catalog.SearchQuery{
		Query:      req.Query,
		CategoryID: req.CategoryID,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		SortBy:     req.SortBy,
		Limit:      req.Limit,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": results})
}

func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.Suggestions(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": names})
}

func (h *Handlers) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/similar")

	products, err := h.catalog.SimilarProducts(r.Context(), id, queryInt(r, "limit"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/categories/")

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *Handlers) GetBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.Banners(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, banners)
}

func (h *Handlers) GetReviews(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/reviews")

	reviews, err := h.catalog.Reviews(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/reviews")

	var req struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	review, err := h.catalog.AddReview(r.Context(), getUserID(r), id, req.Rating, req.Review)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}
