package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"todo-board/domain"
)

const (
	ldJSON          = "application/ld+json"
	maxResponseSize = 4 << 20 // 4 MiB
)

// HTTPError is returned when the tasks API answers with a non-2xx status.
type HTTPError struct {
	Method string
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	if e.Method == http.MethodGet {
		return fmt.Sprintf("HTTP error: %d", e.Status)
	}
	return fmt.Sprintf("HTTP %s error for %s: %d", e.Method, e.URL, e.Status)
}

// Remote talks to the tasks REST API.
type Remote struct {
	baseURL string
	http    *http.Client
}

// NewRemote creates a client for the API rooted at baseURL. A nil client gets
// a default one with a 10 second timeout.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (r *Remote) tasksURL() string {
	return r.baseURL + "/tasks"
}

func (r *Remote) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", ldJSON)
	if body != nil {
		req.Header.Set("Content-Type", ldJSON)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		return nil, &HTTPError{Method: method, URL: url, Status: resp.StatusCode}
	}
	return resp, nil
}

func decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	return dec.Decode(out)
}

// List fetches the collection and converts every record's timestamps.
func (r *Remote) List(ctx context.Context) ([]domain.Task, error) {
	resp, err := r.do(ctx, http.MethodGet, r.tasksURL(), nil)
	if err != nil {
		return nil, err
	}
	var col domain.Collection[domain.RawTask]
	if err := decodeBody(resp, &col); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(col.Member))
	for _, raw := range col.Member {
		task, err := raw.Parse()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Create posts the draft and returns the task as stored by the API.
func (r *Remote) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	body, err := sonic.Marshal(draft)
	if err != nil {
		return domain.Task{}, err
	}
	resp, err := r.do(ctx, http.MethodPost, r.tasksURL(), body)
	if err != nil {
		return domain.Task{}, err
	}
	var raw domain.RawTask
	if err := decodeBody(resp, &raw); err != nil {
		return domain.Task{}, fmt.Errorf("decode created task: %w", err)
	}
	return raw.Parse()
}

// Delete removes a task. A 404 from the API maps to ErrNotFound.
func (r *Remote) Delete(ctx context.Context, id int64) error {
	resp, err := r.do(ctx, http.MethodDelete, r.tasksURL()+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		if he, ok := err.(*HTTPError); ok && he.Status == http.StatusNotFound {
			return ErrNotFound
		}
		return err
	}
	resp.Body.Close()
	return nil
}
