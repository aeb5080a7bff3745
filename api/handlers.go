package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todo-board/domain"
	"todo-board/storage"
)

const headerIdempotencyKey = "Idempotency-Key"

// Register wires up all routes on the provided Echo instance. deduper may be nil.
func Register(e *echo.Echo, store Repository, deduper Deduper, page Page, now Clock, logger *log.Logger) {
	if now == nil {
		now = time.Now
	}
	if len(page.Columns) == 0 {
		page.Columns = domain.DefaultColumns
	}
	e.JSONSerializer = sonicSerializer{}
	e.Renderer = newTemplateRenderer()

	e.GET("/", getPage(store, page, now, logger))
	e.POST("/tasks", postTaskForm(store, page, now, logger))
	e.POST("/tasks/:id/delete", postDeleteForm(store, page, now, logger))

	e.GET("/api/tasks", getTasks(store, logger))
	e.POST("/api/tasks", postTask(store, deduper, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, logger))
	e.GET("/api/board", getBoard(store, page, now, logger))
	e.GET("/api/overlay", getOverlay(logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// storeErrorStatus maps a task source failure to the response status.
func storeErrorStatus(err error) int {
	var httpErr *storage.HTTPError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseTaskID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid task id")
	}
	return id, nil
}

func getTasks(store Repository, logger *log.Logger) echo.HandlerFunc {
	return instrument("/api/tasks", logger, func(c echo.Context, m *requestMetrics) error {
		fetchStart := time.Now()
		tasks, err := store.List(c.Request().Context())
		m.ObserveFetch(time.Since(fetchStart))
		if err != nil {
			m.SetErrorStage("storage")
			return c.JSON(storeErrorStatus(err), errorResponse{Error: err.Error()})
		}
		m.SetTasksReturned(len(tasks))
		return c.JSON(http.StatusOK, domain.NewCollection(tasks))
	})
}

func getBoard(store Repository, page Page, now Clock, logger *log.Logger) echo.HandlerFunc {
	return instrument("/api/board", logger, func(c echo.Context, m *requestMetrics) error {
		fetchStart := time.Now()
		tasks, err := store.List(c.Request().Context())
		m.ObserveFetch(time.Since(fetchStart))
		if err != nil {
			m.SetErrorStage("storage")
			return c.JSON(storeErrorStatus(err), errorResponse{Error: err.Error()})
		}
		m.SetTasksReturned(len(tasks))
		return c.JSON(http.StatusOK, domain.BuildBoard(tasks, page.Columns, now()))
	})
}

func decodeDraft(body io.Reader) (domain.Draft, error) {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, postTaskMaxSize))
	dec.DisallowUnknownFields()
	var req draftRequest
	if err := dec.Decode(&req); err != nil {
		return domain.Draft{}, err
	}
	d := domain.Draft{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
	}
	if req.DueDate != "" {
		due, err := domain.ParseTime(req.DueDate)
		if err != nil {
			return domain.Draft{}, &domain.ValidationError{Fields: map[string]string{"dueDate": err.Error()}}
		}
		d.DueDate = due
	}
	return d, nil
}

func postTask(store Repository, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return instrument("/api/tasks", logger, func(c echo.Context, m *requestMetrics) error {
		ctx := c.Request().Context()
		draft, err := decodeDraft(c.Request().Body)
		if err == nil {
			err = domain.ValidateDraft(draft)
		}
		if err != nil {
			m.SetErrorStage("validation")
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid task", Fields: ve.Fields})
			}
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
		if key == "" {
			key = uuid.NewString()
		}
		c.Response().Header().Set(headerIdempotencyKey, key)

		if deduper != nil {
			added, derr := deduper.Add(ctx, key)
			if derr != nil {
				logger.WithError(derr).Warn("idempotency check failed; creating without it")
			} else if !added {
				m.SetErrorStage("duplicate")
				return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
			}
		}

		task, err := store.Create(ctx, draft)
		if err != nil {
			if deduper != nil {
				if rerr := deduper.Remove(context.WithoutCancel(ctx), key); rerr != nil {
					logger.WithError(rerr).Warn("failed to release idempotency key")
				}
			}
			m.SetErrorStage("storage")
			return c.JSON(storeErrorStatus(err), errorResponse{Error: err.Error()})
		}
		m.SetTasksReturned(1)
		return c.JSON(http.StatusCreated, task)
	})
}

func deleteTask(store Repository, logger *log.Logger) echo.HandlerFunc {
	return instrument("/api/tasks/:id", logger, func(c echo.Context, m *requestMetrics) error {
		id, err := parseTaskID(c.Param("id"))
		if err != nil {
			m.SetErrorStage("invalid_id")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		if err := store.Delete(c.Request().Context(), id); err != nil {
			m.SetErrorStage("storage")
			return c.JSON(storeErrorStatus(err), errorResponse{Error: err.Error()})
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func parseDimension(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// getOverlay answers 204 when the geometry is not available yet, so the page
// keeps whatever box it already applied.
func getOverlay(logger *log.Logger) echo.HandlerFunc {
	return instrument("/api/overlay", logger, func(c echo.Context, m *requestMetrics) error {
		var vals [4]float64
		for i, name := range []string{"containerWidth", "containerHeight", "naturalWidth", "naturalHeight"} {
			v, err := parseDimension(c, name)
			if err != nil {
				m.SetErrorStage("invalid_dimension")
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
			}
			vals[i] = v
		}
		box, ok := domain.FitContain(
			domain.Size{Width: vals[0], Height: vals[1]},
			domain.Size{Width: vals[2], Height: vals[3]},
		)
		if !ok {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusOK, box)
	})
}
