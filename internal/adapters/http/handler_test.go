package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/stockmanager/core/internal/adapters/repository"
	"github.com/stockmanager/core/internal/application/services"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// failingDocs stops accepting writes once armed
type failingDocs struct {
	ports.DocumentStore
	fail bool
}

func (d *failingDocs) Write(ctx context.Context, key string, data []byte) error {
	if d.fail {
		return errors.New("storage error: read-only filesystem")
	}
	return d.DocumentStore.Write(ctx, key, data)
}

type testEnv struct {
	echo  *echo.Echo
	store *repository.ItemStore
	fs    afero.Fs
	docs  *failingDocs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fsys := afero.NewMemMapFs()
	docs := &failingDocs{DocumentStore: repository.NewFileDocumentStore(fsys, "")}

	var tick int64 = 1700000000
	clock := func() time.Time {
		tick++
		return time.Unix(tick, 0)
	}

	store, err := repository.NewItemStore(context.Background(), docs, "data.json", repository.WithClock(clock))
	require.NoError(t, err)

	log := logger.NewNop()
	svc := services.NewItemService(store, log)

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	e.Renderer = renderer

	NewItemHandler(svc, log).Register(e.Group("/api/v1/items"))
	NewViewHandler(svc, log).Register(e)

	return &testEnv{echo: e, store: store, fs: fsys, docs: docs}
}

func (env *testEnv) do(method, target, body, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) json(method, target, body string) *httptest.ResponseRecorder {
	return env.do(method, target, body, echo.MIMEApplicationJSON)
}

func (env *testEnv) form(values url.Values) *httptest.ResponseRecorder {
	return env.do(http.MethodPost, "/", values.Encode(), echo.MIMEApplicationForm)
}
