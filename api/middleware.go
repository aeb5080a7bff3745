package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GzipRequestMiddleware lets clients post gzip-compressed task drafts.
// A body that is not valid gzip is answered with 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !acceptsGzip(req.Header.Values(echo.HeaderContentEncoding)) {
				return next(c)
			}
			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = gzipBody{zr: zr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func acceptsGzip(values []string) bool {
	for _, v := range values {
		for _, token := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "gzip") {
				return true
			}
		}
	}
	return false
}

type gzipBody struct {
	zr  *gzip.Reader
	raw io.ReadCloser
}

func (b gzipBody) Read(p []byte) (int, error) { return b.zr.Read(p) }

func (b gzipBody) Close() error {
	zerr := b.zr.Close()
	if err := b.raw.Close(); err != nil {
		return err
	}
	return zerr
}
