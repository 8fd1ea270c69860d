package category

import (
	"net/http"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	Id       int      `json:"id"`
	Name     string   `json:"name"`
	Type     Type     `json:"type"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Keywords []string `json:"keywords"`
	Custom   bool     `json:"custom"`
}

type SubcategoryDTO struct {
	Id         int    `json:"id"`
	CategoryId int    `json:"categoryId"`
	Name       string `json:"name"`
}

type SuggestRequestDTO struct {
	Description string `json:"description"`
	Type        Type   `json:"type"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListCategories godoc
// @Summary List categories
// @Description Global categories plus the user's own, optionally filtered by type
// @Tags Category
// @Produce json
// @Param type query string false "expense or income"
// @Success 200 {array} CategoryDTO
// @Router /api/category [get]
// @Security BearerAuth
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing categories")

	var categoryType *Type
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := ParseType(raw)
		if !ok {
			rest.WriteError(w, apperr.Validation("Invalid category type", map[string]string{"type": "must be expense or income"}))
			return
		}
		categoryType = &t
	}

	categories, err := h.service.ListCategories(r.Context(), categoryType)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, categoryToDTO(c))
	}
	rest.WriteData(w, http.StatusOK, dtos)
}

// CreateCategory godoc
// @Summary Create a custom category
// @Tags Category
// @Accept json
// @Produce json
// @Param category body CategoryDTO true "Category"
// @Success 201 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Category already exists"
// @Router /api/category [post]
// @Security BearerAuth
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var dto CategoryDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Creating category: %+v", dto)

	created, err := h.service.CreateCategory(r.Context(), Category{
		Name:     dto.Name,
		Type:     dto.Type,
		Icon:     dto.Icon,
		Color:    dto.Color,
		Keywords: dto.Keywords,
	})
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusCreated, categoryToDTO(created))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Deleting category %d", id)

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteNoContent(w)
}

func (h *Handler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	subcategories, err := h.service.ListSubcategories(r.Context(), categoryId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]SubcategoryDTO, 0, len(subcategories))
	for _, s := range subcategories {
		dtos = append(dtos, subcategoryToDTO(s))
	}
	rest.WriteData(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	var dto SubcategoryDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}

	created, err := h.service.CreateSubcategory(r.Context(), Subcategory{CategoryId: categoryId, Name: dto.Name})
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusCreated, subcategoryToDTO(created))
}

// Suggest godoc
// @Summary Suggest a category
// @Description Fuzzy matches a description against category names and keywords. Data is null when nothing matches.
// @Tags Category
// @Accept json
// @Produce json
// @Param request body SuggestRequestDTO true "Description"
// @Success 200 {object} Suggestion
// @Router /api/category/suggest [post]
// @Security BearerAuth
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var dto SuggestRequestDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	if dto.Type == "" {
		dto.Type = TypeExpense
	}
	if _, ok := ParseType(string(dto.Type)); !ok {
		rest.WriteError(w, apperr.Validation("Invalid category type", map[string]string{"type": "must be expense or income"}))
		return
	}

	suggestion, ok, err := h.service.Suggest(r.Context(), dto.Description, dto.Type)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	if !ok {
		rest.WriteData(w, http.StatusOK, nil)
		return
	}
	rest.WriteData(w, http.StatusOK, suggestion)
}

func categoryToDTO(c Category) CategoryDTO {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return CategoryDTO{
		Id:       c.Id,
		Name:     c.Name,
		Type:     c.Type,
		Icon:     c.Icon,
		Color:    c.Color,
		Keywords: keywords,
		Custom:   !c.IsGlobal(),
	}
}

func subcategoryToDTO(s Subcategory) SubcategoryDTO {
	return SubcategoryDTO{Id: s.Id, CategoryId: s.CategoryId, Name: s.Name}
}
