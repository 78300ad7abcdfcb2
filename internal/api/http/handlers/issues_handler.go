package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs the handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// CreateIssue POST /issues. The reporter is the verified identity when the
// request carries one, otherwise the reporter_email field.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	var req struct {
		dto.CreateIssueRequest
		ReporterEmail string `json:"reporter_email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	reporter, ok := auth.IdentityFromContext(c)
	if !ok {
		reporter = req.ReporterEmail
	}

	issue, err := h.issues.CreateIssue(c.UserContext(), reporter, service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	issues, err := h.issues.ListIssues(c.UserContext(), parseIssueQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	issue, timeline, err := h.issues.GetIssue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue, timeline)})
}

// UpdateIssue PATCH /issues/:id.
func (h *IssuesHandler) UpdateIssue(c *fiber.Ctx) error {
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	issue, err := h.issues.UpdateDetails(c.UserContext(), c.Params("id"), repository.IssuePatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	actor, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// RejectIssue POST /issues/:id/reject.
func (h *IssuesHandler) RejectIssue(c *fiber.Ctx) error {
	actor, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.RejectIssue(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// AssignStaff POST /issues/:id/assign.
func (h *IssuesHandler) AssignStaff(c *fiber.Ctx) error {
	var req dto.AssignStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	actor, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.AssignStaff(c.UserContext(), c.Params("id"), req.StaffEmail, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// BoostIssue POST /issues/:id/boost. Direct admin boost, no payment involved.
func (h *IssuesHandler) BoostIssue(c *fiber.Ctx) error {
	actor, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.BoostIssue(c.UserContext(), c.Params("id"), actor, false, "")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// Upvote POST /issues/:id/upvote. The voter is the verified identity when
// present, otherwise the voter_email field.
func (h *IssuesHandler) Upvote(c *fiber.Ctx) error {
	var req struct {
		VoterEmail string `json:"voter_email"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	voter, ok := auth.IdentityFromContext(c)
	if !ok {
		voter = req.VoterEmail
	}

	issue, err := h.issues.Upvote(c.UserContext(), c.Params("id"), voter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	if err := h.issues.DeleteIssue(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseIssueQuery(c *fiber.Ctx) service.IssueListFilter {
	filter := service.IssueListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IssueStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priority := c.Query("priority"); priority != "" {
		p := domain.IssuePriority(strings.ToUpper(strings.TrimSpace(priority)))
		filter.Priority = &p
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if reporter := c.Query("reported_by"); reporter != "" {
		filter.ReportedBy = &reporter
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:          issue.ID,
		Title:       issue.Title,
		Category:    issue.Category,
		Location:    issue.Location,
		Status:      issue.Status,
		Priority:    issue.Priority,
		UpvoteCount: issue.UpvoteCount,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

func issueDetail(issue *domain.Issue, timeline []domain.StatusChange) dto.IssueDetailResponse {
	entries := make([]dto.StatusChangeResponse, 0, len(timeline))
	for _, change := range timeline {
		entries = append(entries, dto.StatusChangeResponse{
			Status:    change.Status,
			ChangedBy: change.ChangedBy,
			ChangedAt: change.ChangedAt,
		})
	}
	return dto.IssueDetailResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Location:    issue.Location,
		ReportedBy:  issue.ReportedBy,
		Status:      issue.Status,
		Priority:    issue.Priority,
		AssignedTo:  issue.AssignedTo,
		AssignedAt:  issue.AssignedAt,
		BoostedAt:   issue.BoostedAt,
		UpvoteCount: issue.UpvoteCount,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		Timeline:    entries,
	}
}
