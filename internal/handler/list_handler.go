package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"easylist/internal/middleware"
	"easylist/internal/model"
	"easylist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ListService interface {
	Create(ctx context.Context, callerID uuid.UUID, in service.CreateListInput) (*model.List, error)
	ListByAuthor(ctx context.Context, callerID uuid.UUID) ([]model.List, error)
	Read(ctx context.Context, callerID, id uuid.UUID) (*model.List, error)
	GetForEdit(ctx context.Context, callerID, id uuid.UUID) (*model.List, error)
	Update(ctx context.Context, callerID, id uuid.UUID, in service.UpdateListInput) (*model.List, error)
	ToggleShare(ctx context.Context, callerID, id uuid.UUID) (*service.ShareResult, error)
	Copy(ctx context.Context, callerID, sourceID uuid.UUID) (*model.List, error)
	Complete(ctx context.Context, callerID, id uuid.UUID) (*model.List, error)
	Delete(ctx context.Context, callerID, id uuid.UUID) error
}

var _ ListService = (*service.ListService)(nil)

type ListHandler struct {
	lists  ListService
	logger *slog.Logger
}

func NewListHandler(lists ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		lists:  lists,
		logger: logger,
	}
}

type CreateListRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=24"`
	HTML            string `json:"html" binding:"required"`
	BackgroundColor string `json:"backgroundColor" binding:"required"`
	NotificationsOn *bool  `json:"notificationsOn" binding:"required"`
	IsPrivate       *bool  `json:"isPrivate" binding:"required"`
}

// UpdateListRequest only touches the fields that are present.
type UpdateListRequest struct {
	Name            *string    `json:"name" binding:"omitnil,min=1,max=24"`
	HTML            *string    `json:"html" binding:"omitnil,min=1"`
	BackgroundColor *string    `json:"backgroundColor" binding:"omitnil,min=1"`
	NotificationsOn *bool      `json:"notificationsOn"`
	IsPrivate       *bool      `json:"isPrivate"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}

type ListResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AuthorID        string `json:"authorId"`
	HTML            string `json:"html"`
	BackgroundColor string `json:"backgroundColor"`
	IsPrivate       bool   `json:"isPrivate"`
	NotificationsOn bool   `json:"notificationsOn"`
	IsFinished      bool   `json:"isFinished"`
	CopiedFrom      string `json:"copiedFrom"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type ShareResponse struct {
	Msg       string `json:"msg"`
	IsPrivate bool   `json:"isPrivate"`
	Link      string `json:"link,omitempty"`
}

func toListResponse(list *model.List) ListResponse {
	resp := ListResponse{
		ID:              list.ID.String(),
		Name:            list.Name,
		AuthorID:        list.AuthorID.String(),
		HTML:            list.HTML,
		BackgroundColor: list.BackgroundColor,
		IsPrivate:       list.IsPrivate,
		NotificationsOn: list.NotificationsOn,
		IsFinished:      list.IsFinished,
		CreatedAt:       list.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       list.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if list.IsCopy() {
		resp.CopiedFrom = list.CopiedFrom.String()
	}
	return resp
}

// GetAll godoc
// @Summary  List the caller's lists
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Success  200 {object} map[string][]ListResponse
// @Failure  404 {object} map[string]string
// @Router   /lists [get]
func (h *ListHandler) GetAll(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}

	lists, err := h.lists.ListByAuthor(c.Request.Context(), callerID)
	if presentError(c, h.logger, err) {
		return
	}

	response := make([]ListResponse, len(lists))
	for i := range lists {
		response[i] = toListResponse(&lists[i])
	}
	c.JSON(http.StatusOK, gin.H{"lists": response})
}

// GetByID godoc
// @Summary  Read a list; private lists are visible to their owner only
// @Tags     Lists
// @Produce  json
// @Param    id  path string true "List ID"
// @Success  200 {object} map[string]ListResponse
// @Failure  401 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Router   /lists/{id} [get]
func (h *ListHandler) GetByID(c *gin.Context) {
	listID, ok := parseListID(c)
	if !ok {
		return
	}
	callerID, _ := middleware.CallerID(c)

	list, err := h.lists.Read(c.Request.Context(), callerID, listID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": toListResponse(list)})
}

// Edit godoc
// @Summary  Fetch an owned list for editing
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Param    id  path string true "List ID"
// @Success  200 {object} map[string]ListResponse
// @Failure  401 {object} map[string]string
// @Router   /lists/{id}/edit [get]
func (h *ListHandler) Edit(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.GetForEdit(c.Request.Context(), callerID, listID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": toListResponse(list)})
}

// Create godoc
// @Summary  Create a list
// @Tags     Lists
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body CreateListRequest true "List"
// @Success  200 {object} map[string]ListResponse
// @Failure  400 {object} map[string]string
// @Router   /lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	list, err := h.lists.Create(c.Request.Context(), callerID, service.CreateListInput{
		Name:            req.Name,
		HTML:            req.HTML,
		BackgroundColor: req.BackgroundColor,
		NotificationsOn: *req.NotificationsOn,
		IsPrivate:       *req.IsPrivate,
	})
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": toListResponse(list)})
}

// Update godoc
// @Summary  Update the supplied fields of an owned list
// @Tags     Lists
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string            true "List ID"
// @Param    body body UpdateListRequest true "Fields to change"
// @Success  200 {object} map[string]interface{}
// @Failure  401 {object} map[string]string
// @Router   /lists/{id} [put]
func (h *ListHandler) Update(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	list, err := h.lists.Update(c.Request.Context(), callerID, listID, service.UpdateListInput{
		Name:            req.Name,
		HTML:            req.HTML,
		BackgroundColor: req.BackgroundColor,
		NotificationsOn: req.NotificationsOn,
		IsPrivate:       req.IsPrivate,
		UpdatedAt:       req.UpdatedAt,
	})
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "List updated", "list": toListResponse(list)})
}

// Share godoc
// @Summary  Toggle the visibility of an owned list
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Param    id  path string true "List ID"
// @Success  200 {object} ShareResponse
// @Failure  401 {object} map[string]string
// @Router   /lists/{id}/share [put]
func (h *ListHandler) Share(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	res, err := h.lists.ToggleShare(c.Request.Context(), callerID, listID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, ShareResponse{Msg: res.Message, IsPrivate: res.IsPrivate, Link: res.Link})
}

// Copy godoc
// @Summary  Copy a public list into the caller's lists
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Param    id  path string true "Source list ID"
// @Success  200 {object} map[string]ListResponse
// @Failure  401 {object} map[string]string
// @Failure  409 {object} map[string]string
// @Router   /lists/{id}/copy [post]
func (h *ListHandler) Copy(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	sourceID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.Copy(c.Request.Context(), callerID, sourceID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": toListResponse(list)})
}

// Complete godoc
// @Summary  Mark a copied list as finished
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Param    id  path string true "List ID"
// @Success  200 {object} map[string]interface{}
// @Failure  404 {object} map[string]string
// @Failure  409 {object} map[string]string
// @Router   /lists/{id}/complete [put]
func (h *ListHandler) Complete(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	list, err := h.lists.Complete(c.Request.Context(), callerID, listID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "List finished", "list": toListResponse(list)})
}

// Delete godoc
// @Summary  Delete a list
// @Tags     Lists
// @Security BearerAuth
// @Produce  json
// @Param    id  path string true "List ID"
// @Success  200 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Router   /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	listID, ok := parseListID(c)
	if !ok {
		return
	}

	err := h.lists.Delete(c.Request.Context(), callerID, listID)
	if presentError(c, h.logger, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "List deleted"})
}

func requireCaller(c *gin.Context) (uuid.UUID, bool) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return callerID, true
}

func parseListID(c *gin.Context) (uuid.UUID, bool) {
	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID format"})
		return uuid.Nil, false
	}
	return listID, true
}
