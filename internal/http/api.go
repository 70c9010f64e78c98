package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
	"expense-tracker/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	expenses service.ExpenseService
	exports  service.ExportService
	tokens   *auth.TokenManager
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, expenses service.ExpenseService, exports service.ExportService, tokens *auth.TokenManager, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:    users,
		expenses: expenses,
		exports:  exports,
		tokens:   tokens,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
	}

	protected := api.Group("", h.authMiddleware())
	{
		protected.GET("/me", h.me)
		protected.GET("/categories", h.listCategories)
		protected.POST("/categories", h.createCategory)
		protected.GET("/expenses", h.listExpenses)
		protected.POST("/expenses", h.createExpense)
		protected.GET("/expenses/export.csv", h.exportCSV)
		protected.GET("/expenses/:id", h.getExpense)
		protected.PATCH("/expenses/:id", h.updateExpense)
		protected.DELETE("/expenses/:id", h.deleteExpense)
		protected.GET("/summary", h.summary)
		protected.GET("/dashboard", h.dashboard)
		protected.POST("/exports", h.publishExport)
		protected.GET("/exports", h.listExports)
		protected.DELETE("/exports", h.deleteExports)
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type createExpenseRequest struct {
	Description string      `json:"description"`
	Amount      amountInput `json:"amount"`
	Category    string      `json:"category"`
}

type updateExpenseRequest struct {
	Description *string      `json:"description"`
	Amount      *amountInput `json:"amount"`
	Category    *string      `json:"category"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *domain.User) {
	token, expires, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
		"user":      userToResponse(user),
	})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.expenses.ListCategories(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories":    categories,
		"needsCategory": len(categories) == 0,
	})
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.expenses.CreateCategory(c.Request.Context(), CurrentUserID(c), req.Name); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": strings.TrimSpace(req.Name)})
}

func (h *Handler) listExpenses(c *gin.Context) {
	expenses, err := h.expenses.ListExpenses(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expensesToResponse(expenses))
}

func (h *Handler) createExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(string(req.Amount)) == "" || strings.TrimSpace(req.Category) == "" {
		h.respondError(c, domain.ErrMissingFields)
		return
	}
	amount, err := domain.ParseAmount(string(req.Amount))
	if err != nil {
		h.respondError(c, err)
		return
	}

	expense, err := h.expenses.CreateExpense(c.Request.Context(), CurrentUserID(c), req.Description, amount, req.Category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expenseToResponse(*expense))
}

func (h *Handler) getExpense(c *gin.Context) {
	expense, err := h.expenses.GetExpense(c.Request.Context(), CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenseToResponse(*expense))
}

func (h *Handler) updateExpense(c *gin.Context) {
	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := domain.ExpensePatch{
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Amount != nil {
		amount, err := domain.ParseAmount(string(*req.Amount))
		if err != nil {
			h.respondError(c, err)
			return
		}
		patch.Amount = &amount
	}

	expense, err := h.expenses.UpdateExpense(c.Request.Context(), CurrentUserID(c), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenseToResponse(*expense))
}

func (h *Handler) deleteExpense(c *gin.Context) {
	id := c.Param("id")
	if err := h.expenses.DeleteExpense(c.Request.Context(), CurrentUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) summary(c *gin.Context) {
	agg, err := h.expenses.Summary(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToResponse(agg))
}

func (h *Handler) dashboard(c *gin.Context) {
	dash, err := h.expenses.Dashboard(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DashboardResponse{
		Categories:    dash.Categories,
		NeedsCategory: len(dash.Categories) == 0,
		Expenses:      expensesToResponse(dash.Expenses),
		Summary:       summaryToResponse(dash.Aggregates),
	})
}

func (h *Handler) exportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exports.WriteCSV(c.Request.Context(), CurrentUserID(c), &buf); err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="expenses.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) publishExport(c *gin.Context) {
	result, err := h.exports.Publish(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExportResponse{
		Rows:       result.Rows,
		Key:        result.Key,
		Location:   result.Location,
		URL:        result.URL,
		SheetRange: result.SheetRange,
	})
}

func (h *Handler) listExports(c *gin.Context) {
	objects, err := h.exports.ListExports(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteExports(c *gin.Context) {
	n, err := h.exports.DeleteExports(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// respondError maps service errors to status codes. Store failures are
// logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExpenseNotFound), errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExportsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
