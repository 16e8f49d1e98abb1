package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"focusdash/domain"
	"focusdash/storage"
)

const (
	maxBodySize    = 64 * 1024 // 64 KiB
	advisorTimeout = 20 * time.Second
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, advisor Advisor, deduper Deduper, logger *log.Logger) {
	g := e.Group("/api")
	g.Use(GzipRequestMiddleware())

	g.GET("/tasks", getTasks(store, logger))
	g.POST("/tasks", createTask(store))
	g.PUT("/tasks/:id", updateTask(store))
	g.DELETE("/tasks/:id", deleteTask(store))

	g.GET("/notes", getNotes(store))
	g.POST("/notes", createNote(store))
	g.DELETE("/notes/:id", deleteNote(store))

	g.GET("/focus-sessions", getSessions(store))
	g.POST("/focus-sessions", createSession(store, deduper))

	g.GET("/stats", getStats(store, logger))
	g.POST("/ai", postAdvice(store, advisor))
	g.GET("/health", getHealth(store))
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func internalError(c echo.Context, err error, msg string) error {
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}

// parseDueDate accepts RFC 3339 timestamps and bare dates, which is what
// the dashboard's date input produces.
func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid due date")
}

func getTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/tasks", "tasks.request.metrics")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		identityStart := time.Now()
		user, uerr := resolveUser(c, store)
		metrics.ObserveIdentity(time.Since(identityStart))
		if uerr != nil {
			metrics.SetErrorStage("identity")
			err = internalError(c, uerr, "failed to fetch tasks")
			return err
		}

		fetchStart := time.Now()
		tasks, ferr := store.ListTasks(ctx, user.ID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if ferr != nil {
			metrics.SetErrorStage("storage")
			err = internalError(c, ferr, "failed to fetch tasks")
			return err
		}
		metrics.SetItemsReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

type createTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	DueDate       string `json:"dueDate"`
	EstimatedTime *int   `json:"estimatedTime"`
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to create task")
		}

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if strings.TrimSpace(req.Title) == "" {
			return badRequest(c, "Title is required")
		}
		priority := domain.Priority(req.Priority)
		if priority == "" {
			priority = domain.PriorityMedium
		}
		if !domain.ValidPriority(priority) {
			return badRequest(c, "invalid priority")
		}
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			return badRequest(c, "invalid due date")
		}

		task := domain.Task{
			Title:         req.Title,
			Description:   req.Description,
			Priority:      priority,
			Category:      req.Category,
			DueDate:       dueDate,
			EstimatedTime: req.EstimatedTime,
			UserID:        user.ID,
		}
		created, err := store.CreateTask(c.Request().Context(), task)
		if err != nil {
			return internalError(c, err, "failed to create task")
		}
		return c.JSON(http.StatusCreated, created)
	}
}

type updateTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Completed     bool   `json:"completed"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	DueDate       string `json:"dueDate"`
	EstimatedTime *int   `json:"estimatedTime"`
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to update task")
		}

		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if strings.TrimSpace(req.Title) == "" {
			return badRequest(c, "Title is required")
		}
		priority := domain.Priority(req.Priority)
		if priority == "" {
			priority = domain.PriorityMedium
		}
		if !domain.ValidPriority(priority) {
			return badRequest(c, "invalid priority")
		}
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			return badRequest(c, "invalid due date")
		}

		task := domain.Task{
			ID:            c.Param("id"),
			Title:         req.Title,
			Description:   req.Description,
			Completed:     req.Completed,
			Priority:      priority,
			Category:      req.Category,
			DueDate:       dueDate,
			EstimatedTime: req.EstimatedTime,
			UserID:        user.ID,
		}
		updated, err := store.UpdateTask(c.Request().Context(), task)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(c, "Task not found or unauthorized")
		}
		if err != nil {
			return internalError(c, err, "failed to update task")
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to delete task")
		}
		err = store.DeleteTask(c.Request().Context(), user.ID, c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(c, "Task not found or unauthorized")
		}
		if err != nil {
			return internalError(c, err, "failed to delete task")
		}
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func getNotes(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to fetch notes")
		}
		notes, err := store.ListNotes(c.Request().Context(), user.ID)
		if err != nil {
			return internalError(c, err, "failed to fetch notes")
		}
		return c.JSON(http.StatusOK, notes)
	}
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

func createNote(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to create note")
		}

		var req createNoteRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
			return badRequest(c, "Title and content are required")
		}

		note := domain.Note{
			Title:   req.Title,
			Content: req.Content,
			Tags:    req.Tags,
			UserID:  user.ID,
		}
		created, err := store.CreateNote(c.Request().Context(), note)
		if err != nil {
			return internalError(c, err, "failed to create note")
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func deleteNote(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to delete note")
		}
		err = store.DeleteNote(c.Request().Context(), user.ID, c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(c, "Note not found or unauthorized")
		}
		if err != nil {
			return internalError(c, err, "failed to delete note")
		}
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func getSessions(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to fetch focus sessions")
		}
		sessions, err := store.ListSessions(c.Request().Context(), user.ID)
		if err != nil {
			return internalError(c, err, "failed to fetch focus sessions")
		}
		return c.JSON(http.StatusOK, sessions)
	}
}

type createSessionRequest struct {
	Duration       int    `json:"duration"`
	Type           string `json:"type"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type duplicateSessionResponse struct {
	Duplicate bool `json:"duplicate"`
}

func createSession(store Storage, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "failed to create focus session")
		}

		var req createSessionRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if req.Duration <= 0 {
			return badRequest(c, "Duration and type are required")
		}
		if !domain.ValidSessionType(domain.SessionType(req.Type)) {
			return badRequest(c, "Duration and type are required")
		}

		ctx := c.Request().Context()
		if deduper != nil && req.IdempotencyKey != "" {
			added, derr := deduper.Add(ctx, user.ID, req.IdempotencyKey)
			if derr != nil {
				// Dedupe is best effort: a Redis outage must not block
				// session recording.
				c.Logger().Warnf("deduper unavailable: %v", derr)
			} else if !added {
				return c.JSON(http.StatusOK, duplicateSessionResponse{Duplicate: true})
			}
		}

		session := domain.FocusSession{
			Duration: req.Duration,
			Type:     domain.SessionType(req.Type),
			UserID:   user.ID,
		}
		created, err := store.CreateSession(ctx, session)
		if err != nil {
			if deduper != nil && req.IdempotencyKey != "" {
				if rerr := deduper.Remove(ctx, user.ID, req.IdempotencyKey); rerr != nil {
					c.Logger().Errorf("dedupe rollback failed: %v", rerr)
				}
			}
			return internalError(c, err, "failed to create focus session")
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func getStats(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/stats", "stats.request.metrics")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		identityStart := time.Now()
		user, uerr := resolveUser(c, store)
		metrics.ObserveIdentity(time.Since(identityStart))
		if uerr != nil {
			metrics.SetErrorStage("identity")
			err = internalError(c, uerr, "Failed to fetch stats")
			return err
		}

		dayStart := domain.DayStart(time.Now())
		dayEnd := dayStart.AddDate(0, 0, 1)

		fetchStart := time.Now()
		tasks, ferr := store.ListTasks(ctx, user.ID)
		if ferr == nil {
			var sessions []domain.FocusSession
			sessions, ferr = store.ListSessionsBetween(ctx, user.ID, dayStart, dayEnd)
			if ferr == nil {
				var notes []domain.Note
				notes, ferr = store.ListNotes(ctx, user.ID)
				if ferr == nil {
					metrics.ObserveFetch(time.Since(fetchStart))

					computeStart := time.Now()
					stats := domain.ComputeStats(tasks, sessions, notes, dayStart)
					metrics.ObserveCompute(time.Since(computeStart))
					metrics.SetItemsReturned(len(tasks))

					encodeStart := time.Now()
					err = c.JSON(http.StatusOK, stats)
					metrics.ObserveEncode(time.Since(encodeStart))
					if err != nil {
						metrics.SetErrorStage("encode_response")
					}
					return err
				}
			}
		}
		metrics.SetErrorStage("storage")
		err = internalError(c, ferr, "Failed to fetch stats")
		return err
	}
}

type adviceRequest struct {
	Query string `json:"query"`
}

type adviceResponse struct {
	Response string `json:"response"`
	Fallback bool   `json:"fallback,omitempty"`
}

func postAdvice(store Storage, advisor Advisor) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := resolveUser(c, store)
		if err != nil {
			return internalError(c, err, "Failed to process AI request")
		}

		var req adviceRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if strings.TrimSpace(req.Query) == "" {
			return badRequest(c, "Query is required")
		}

		ctx := c.Request().Context()
		tasks, err := store.ListTasks(ctx, user.ID)
		if err != nil {
			return internalError(c, err, "Failed to process AI request")
		}
		dayStart := domain.DayStart(time.Now())
		sessions, err := store.ListSessionsBetween(ctx, user.ID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return internalError(c, err, "Failed to process AI request")
		}

		adviceCtx := domain.BuildAdviceContext(tasks, sessions)

		// External failures never surface as request failures: any problem
		// with the generation call degrades to a canned response built from
		// the counts above.
		if advisor == nil {
			return c.JSON(http.StatusOK, adviceResponse{Response: adviceCtx.Fallback(req.Query), Fallback: true})
		}

		genCtx, cancel := context.WithTimeout(ctx, advisorTimeout)
		defer cancel()
		text, err := advisor.Generate(genCtx, adviceCtx.Prompt(req.Query))
		if err != nil || strings.TrimSpace(text) == "" {
			if err != nil {
				c.Logger().Warnf("advice generation failed: %v", err)
			}
			return c.JSON(http.StatusOK, adviceResponse{Response: adviceCtx.Fallback(req.Query), Fallback: true})
		}
		return c.JSON(http.StatusOK, adviceResponse{Response: text})
	}
}

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	UserCount int    `json:"userCount,omitempty"`
}

func getHealth(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userCount, err := store.CheckHealth(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, healthResponse{Success: false, Error: "health check failed"})
		}
		return c.JSON(http.StatusOK, healthResponse{
			Success:   true,
			Message:   "Database health check passed",
			UserCount: userCount,
		})
	}
}
