package api

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todo-board/domain"
	"todo-board/storage"
)

const (
	pageTemplate = "board.html"
	formDate     = "2006-01-02"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() *templateRenderer {
	funcs := template.FuncMap{
		"frenchDate": func(t time.Time) string { return t.Format("02/01/2006") },
		"runeCount":  utf8.RuneCountInString,
	}
	return &templateRenderer{
		tmpl: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// addForm holds what the user typed so a rejected submit keeps it.
type addForm struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Errors      map[string]string
}

type pageData struct {
	Title          string
	SheetURL       string
	Sheet          domain.Size
	Board          domain.Board
	Modal          domain.Modal
	Form           addForm
	Error          string
	FormReady      bool
	MaxTitle       int
	MaxDescription int
}

func newPageData(page Page) *pageData {
	return &pageData{
		Title:          page.Title,
		SheetURL:       page.SheetURL,
		Sheet:          page.SheetSize,
		MaxTitle:       domain.MaxTitleLength,
		MaxDescription: domain.MaxDescriptionLength,
	}
}

// loadBoard fills the board from the store. A failure is shown on the page
// instead of the columns.
func (d *pageData) loadBoard(c echo.Context, store Repository, page Page, now time.Time, m *requestMetrics) ([]domain.Task, error) {
	fetchStart := time.Now()
	tasks, err := store.List(c.Request().Context())
	m.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		m.SetErrorStage("storage")
		d.Error = "Erreur : " + err.Error()
		return nil, err
	}
	m.SetTasksReturned(len(tasks))
	d.Board = domain.BuildBoard(tasks, page.Columns, now)
	return tasks, nil
}

// modalFromQuery replays the modal transitions encoded in the URL.
func modalFromQuery(c echo.Context, tasks []domain.Task) domain.Modal {
	var modal domain.Modal
	switch c.QueryParam("modal") {
	case domain.ModalAdd.String():
		if p := c.QueryParam("priority"); p != "" {
			return modal.OpenAdd(p)
		}
	case domain.ModalDelete.String():
		id, err := parseTaskID(c.QueryParam("id"))
		if err != nil {
			return modal.Close()
		}
		if task, ok := domain.FindTask(tasks, id); ok {
			return modal.OpenDelete(task)
		}
	}
	return modal.Close()
}

func getPage(store Repository, page Page, now Clock, logger *log.Logger) echo.HandlerFunc {
	return instrument("/", logger, func(c echo.Context, m *requestMetrics) error {
		data := newPageData(page)
		current := now()
		tasks, err := data.loadBoard(c, store, page, current, m)
		if err != nil {
			return c.Render(storeErrorStatus(err), pageTemplate, data)
		}
		data.Modal = modalFromQuery(c, tasks)
		if data.Modal.IsAddOpen() {
			data.Form = addForm{Priority: data.Modal.Priority(), DueDate: current.Format(formDate)}
		}
		return c.Render(http.StatusOK, pageTemplate, data)
	})
}

func readAddForm(c echo.Context) (addForm, domain.Draft, error) {
	form := addForm{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: strings.TrimSpace(c.FormValue("description")),
		DueDate:     c.FormValue("dueDate"),
		Priority:    c.FormValue("priority"),
	}
	draft := domain.Draft{Title: form.Title, Description: form.Description, Priority: form.Priority}
	if form.DueDate != "" {
		due, err := time.Parse(formDate, form.DueDate)
		if err != nil {
			return form, draft, &domain.ValidationError{Fields: map[string]string{"dueDate": "date invalide"}}
		}
		draft.DueDate = due
	}
	return form, draft, domain.ValidateDraft(draft)
}

func postTaskForm(store Repository, page Page, now Clock, logger *log.Logger) echo.HandlerFunc {
	return instrument("/tasks", logger, func(c echo.Context, m *requestMetrics) error {
		form, draft, err := readAddForm(c)
		status := http.StatusSeeOther
		if err == nil {
			if _, err = store.Create(c.Request().Context(), draft); err == nil {
				return c.Redirect(status, "/")
			}
			m.SetErrorStage("storage")
			status = storeErrorStatus(err)
			form.Errors = map[string]string{"task": "Erreur lors de la création de la tâche"}
		} else {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				return err
			}
			m.SetErrorStage("validation")
			status = http.StatusUnprocessableEntity
			form.Errors = ve.Fields
		}

		data := newPageData(page)
		if _, lerr := data.loadBoard(c, store, page, now(), m); lerr != nil {
			logger.WithError(lerr).Warn("reloading board after failed submit")
		}
		data.Modal = data.Modal.OpenAdd(form.Priority)
		data.Form = form
		data.FormReady = domain.DraftReady(draft)
		return c.Render(status, pageTemplate, data)
	})
}

func postDeleteForm(store Repository, page Page, now Clock, logger *log.Logger) echo.HandlerFunc {
	return instrument("/tasks/:id/delete", logger, func(c echo.Context, m *requestMetrics) error {
		id, err := parseTaskID(c.Param("id"))
		if err != nil {
			m.SetErrorStage("invalid_id")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		err = store.Delete(c.Request().Context(), id)
		// Someone else already removed it; the board is what the user wanted.
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		m.SetErrorStage("storage")
		data := newPageData(page)
		tasks, lerr := data.loadBoard(c, store, page, now(), m)
		if lerr == nil {
			if task, ok := domain.FindTask(tasks, id); ok {
				data.Modal = data.Modal.OpenDelete(task)
			}
		}
		data.Error = "Erreur lors de la suppression de la tâche"
		return c.Render(storeErrorStatus(err), pageTemplate, data)
	})
}
