package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/http/response"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
}

func NewProjectHandler(projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Name     string         `json:"name" binding:"required"`
		ClientID *uuid.UUID     `json:"client_id"`
		Budget   optionalAmount `json:"budget"`
		Status   string         `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	budget, _, err := req.Budget.parse("ProjectHandler.Create")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	p, err := h.projects.CreateProject(c.Request.Context(), services.CreateProjectRequest{
		Name:     req.Name,
		ClientID: req.ClientID,
		Budget:   budget,
		Status:   req.Status,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.projects.ListProjects(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": list})
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// PATCH /api/projects/:id
// body: { "name": "...", "budget": "12000" | null, "status": "ongoing" }
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name   *string        `json:"name"`
		Budget optionalAmount `json:"budget"`
		Status *string        `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	budget, clear, err := req.Budget.parse("ProjectHandler.Update")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	p, err := h.projects.UpdateProject(c.Request.Context(), id, services.UpdateProjectRequest{
		Name:        req.Name,
		Budget:      budget,
		ClearBudget: clear,
		Status:      req.Status,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/assignments
func (h *ProjectHandler) CreateAssignment(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		MemberID        uuid.UUID      `json:"member_id"`
		AllocatedBudget optionalAmount `json:"allocated_budget"`
	}
	if !bindJSON(c, &req) {
		return
	}
	allocated, _, err := req.AllocatedBudget.parse("ProjectHandler.CreateAssignment")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	a, err := h.projects.CreateAssignment(c.Request.Context(), projectID, services.CreateAssignmentRequest{
		MemberID:        req.MemberID,
		AllocatedBudget: allocated,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"assignment": a})
}

// GET /api/projects/:id/assignments
func (h *ProjectHandler) ListAssignments(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.projects.ListAssignments(c.Request.Context(), projectID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": list})
}

// PATCH /api/assignments/:id
// body: { "allocated_budget": "6000" | null }
func (h *ProjectHandler) UpdateAssignment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AllocatedBudget optionalAmount `json:"allocated_budget"`
	}
	if !bindJSON(c, &req) {
		return
	}
	allocated, clear, err := req.AllocatedBudget.parse("ProjectHandler.UpdateAssignment")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	a, err := h.projects.UpdateAssignment(c.Request.Context(), id, services.UpdateAssignmentRequest{
		AllocatedBudget:      allocated,
		ClearAllocatedBudget: clear,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": a})
}

// DELETE /api/assignments/:id
func (h *ProjectHandler) RemoveAssignment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.projects.RemoveAssignment(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": a})
}
