package storefront_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/modules/storefront"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

type env struct {
	handler http.Handler
	dir     *fakeDirectory
	catalog *fakeCatalog
	media   *media.LocalStorage
}

func setup(t *testing.T) *env {
	t.Helper()

	dir := &fakeDirectory{
		tenants: []*tenant.Tenant{
			{SchemaName: "techstore", Name: "TechStore", Active: true},
			{SchemaName: "fashion", Name: "Fashion Boutique", Active: true},
			{SchemaName: "closed", Name: "Closed Shop", Active: false},
		},
		primary: map[string]string{
			"techstore": "techstore.localhost",
			"fashion":   "fashion.localhost",
			"closed":    "closed.localhost",
		},
	}
	store, err := media.NewLocalStorage(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	cat := &fakeCatalog{}

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(tenant.Middleware(dir, newSource("techstore", "fashion", "closed"),
		tenant.WithCache(tenant.NewNoOpCache()),
	))
	r.Mount("/", storefront.Router(storefront.RouterOptions{
		Info:    storefront.NewInfoService(dir, store, storefront.Settings{MediaBackend: "local"}, nil),
		Catalog: storefront.NewCatalogService(cat),
		Media:   storefront.NewMediaService(store, 16),
	}, nil))

	return &env{handler: r, dir: dir, catalog: cat, media: store}
}

func (e *env) do(t *testing.T, method, host, path string, body []byte, contentType string) (*httptest.ResponseRecorder, handler.JSONResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Host = host
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func data(t *testing.T, resp handler.JSONResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestSchemaInfo(t *testing.T) {
	t.Parallel()
	e := setup(t)

	t.Run("tenant host", func(t *testing.T) {
		rec, resp := e.do(t, http.MethodGet, "techstore.localhost:8000", "/schema-info/", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "techstore", rec.Header().Get(tenant.HeaderSchema))
		assert.Equal(t, "TechStore", rec.Header().Get(tenant.HeaderName))

		got := data(t, resp)
		assert.Equal(t, "techstore", got["current_schema"])
		assert.Equal(t, `"techstore", "public"`, got["search_path"])
		assert.Equal(t, "TechStore", got["tenant"])
		assert.Equal(t, "techstore.localhost:8000", got["domain"])
		assert.Len(t, got["all_tenants"], 2)
	})

	t.Run("unknown host falls back to public", func(t *testing.T) {
		rec, resp := e.do(t, http.MethodGet, "unknown.localhost:8000", "/schema-info", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "public", rec.Header().Get(tenant.HeaderSchema))
		assert.Equal(t, tenant.NoTenant, rec.Header().Get(tenant.HeaderName))

		got := data(t, resp)
		assert.Equal(t, "public", got["current_schema"])
		assert.Equal(t, `"public"`, got["search_path"])
		assert.Equal(t, tenant.NoTenant, got["tenant"])
	})
}

func TestDBRouting(t *testing.T) {
	t.Parallel()
	e := setup(t)

	routes := func(t *testing.T, got map[string]any) map[string]map[string]any {
		t.Helper()
		list, ok := got["routes"].([]any)
		require.True(t, ok)
		out := map[string]map[string]any{}
		for _, item := range list {
			r := item.(map[string]any)
			out[r["table"].(string)] = r
		}
		return out
	}

	t.Run("tenant host counts in its own schema", func(t *testing.T) {
		rec, resp := e.do(t, http.MethodGet, "techstore.localhost", "/db-routing/", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		got := data(t, resp)
		assert.Equal(t, "techstore", got["current_schema"])
		assert.Equal(t, `"techstore", "public"`, got["search_path"])
		assert.EqualValues(t, 3, got["products_count"])
		assert.EqualValues(t, 3, got["tenants_count"])

		r := routes(t, got)
		assert.Equal(t, `"techstore"."products"`, r["products"]["qualified"])
		assert.Equal(t, `SELECT * FROM "techstore"."products"`, r["products"]["sql"])
		assert.Equal(t, "tenant", r["products"]["scope"])
		assert.Equal(t, `"public"."tenants"`, r["tenants"]["qualified"])
		assert.Equal(t, `SELECT * FROM "public"."tenants"`, r["tenants"]["sql"])
	})

	t.Run("other tenant sees its own products", func(t *testing.T) {
		rec, resp := e.do(t, http.MethodGet, "fashion.localhost", "/db-routing", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		got := data(t, resp)
		assert.EqualValues(t, 2, got["products_count"])
		assert.EqualValues(t, 3, got["tenants_count"])
		assert.Equal(t, `"fashion"."products"`, routes(t, got)["products"]["qualified"])
	})

	t.Run("public host has no tenant tables", func(t *testing.T) {
		rec, resp := e.do(t, http.MethodGet, "localhost", "/db-routing", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		got := data(t, resp)
		assert.Equal(t, "public", got["current_schema"])
		assert.Nil(t, got["products_count"])
		assert.EqualValues(t, 3, got["tenants_count"])

		r := routes(t, got)
		assert.NotContains(t, r["products"], "qualified")
		assert.Equal(t, `"public"."domains"`, r["domains"]["qualified"])
	})
}

func TestHome(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec, resp := e.do(t, http.MethodGet, "localhost:8000", "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := data(t, resp)
	assert.Equal(t, "This is the public schema", got["message"])
	links, ok := got["available_tenants"].([]any)
	require.True(t, ok)
	require.Len(t, links, 2)
	assert.Equal(t, "http://fashion.localhost:8000", links[0].(map[string]any)["url"])
	assert.Equal(t, "http://techstore.localhost:8000", links[1].(map[string]any)["url"])

	_, resp = e.do(t, http.MethodGet, "fashion.localhost", "/", nil, "")
	assert.Equal(t, "Welcome to Fashion Boutique", data(t, resp)["message"])
}

func TestHomeDirectoryError(t *testing.T) {
	t.Parallel()
	e := setup(t)
	e.dir.err = errors.New("registry down")

	rec, resp := e.do(t, http.MethodGet, "localhost", "/", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "registry down")
}

func TestRequestFlowAndConfig(t *testing.T) {
	t.Parallel()
	e := setup(t)

	_, resp := e.do(t, http.MethodGet, "fashion.localhost", "/request-flow/", nil, "")
	state := data(t, resp)["current_state"].(map[string]any)
	assert.Equal(t, "fashion", state["schema"])
	assert.Equal(t, false, state["is_public"])
	assert.Len(t, data(t, resp)["request_flow"], 8)

	_, resp = e.do(t, http.MethodGet, "fashion.localhost", "/config/", nil, "")
	cfg := data(t, resp)
	assert.Equal(t, "public", cfg["public_schema"])
	entities := cfg["entities"].(map[string]any)
	assert.ElementsMatch(t, []any{"tenants", "domains"}, entities["shared"])
	assert.ElementsMatch(t, []any{"products", "orders"}, entities["tenant"])
	assert.Equal(t, "local", cfg["media_backend"])
}

func TestMediaInfo(t *testing.T) {
	t.Parallel()
	e := setup(t)

	_, resp := e.do(t, http.MethodGet, "techstore.localhost", "/media-info/", nil, "")
	got := data(t, resp)
	assert.Equal(t, "TechStore", got["tenant"])
	assert.Equal(t, "tenant/techstore", got["media_root"])
	assert.Equal(t, "/uploads/tenant/techstore", got["media_url"])

	_, resp = e.do(t, http.MethodGet, "localhost", "/media-info/", nil, "")
	got = data(t, resp)
	assert.Equal(t, "Public", got["tenant"])
	assert.Equal(t, "/", got["media_root"])
	assert.Equal(t, "/uploads/", got["media_url"])
}

func TestTenantOnlyRoutes(t *testing.T) {
	t.Parallel()
	e := setup(t)

	for _, path := range []string{"/data/", "/media/"} {
		rec, resp := e.do(t, http.MethodGet, "unknown.localhost", path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "tenant_required", resp.Error.Code, path)
	}
	assert.Empty(t, e.catalog.schemas)
}

func TestCatalogIsolation(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec, resp := e.do(t, http.MethodPost, "techstore.localhost", "/products/",
		[]byte(`{"name":"Laptop","price":"999.99"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Laptop", data(t, resp)["name"])

	_, resp = e.do(t, http.MethodGet, "techstore.localhost", "/data/", nil, "")
	got := data(t, resp)
	assert.Equal(t, "techstore", got["tenant_info"].(map[string]any)["schema"])
	assert.Len(t, got["products"], 1)

	_, resp = e.do(t, http.MethodGet, "fashion.localhost", "/data/", nil, "")
	got = data(t, resp)
	assert.Equal(t, "fashion", got["tenant_info"].(map[string]any)["schema"])
	assert.Empty(t, got["products"])
	assert.Equal(t, []string{"techstore", "techstore", "fashion"}, e.catalog.schemas)
}

func TestCatalogValidation(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec, resp := e.do(t, http.MethodPost, "techstore.localhost", "/products/",
		[]byte(`{"name":"","price":"-1"}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "name")
	assert.Contains(t, resp.Error.Details, "price")

	rec, resp = e.do(t, http.MethodPost, "techstore.localhost", "/orders/",
		[]byte(`{"order_number":"X","total_amount":"10.00","extra":1}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", resp.Error.Code)

	rec, _ = e.do(t, http.MethodPost, "techstore.localhost", "/orders/",
		[]byte(`{"order_number":"TECH-9","total_amount":"10.00"}`), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func multipartBody(t *testing.T, field, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestMediaUploadAndList(t *testing.T) {
	t.Parallel()
	e := setup(t)

	body, ct := multipartBody(t, "file", "../logo 1.png", "png-bytes")
	rec, resp := e.do(t, http.MethodPost, "techstore.localhost", "/media/", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "tenant/techstore/logo_1.png", data(t, resp)["key"])

	_, resp = e.do(t, http.MethodGet, "techstore.localhost", "/media/", nil, "")
	got := data(t, resp)
	assert.Equal(t, "tenant/techstore", got["directory"])
	assert.Len(t, got["files"], 1)

	_, resp = e.do(t, http.MethodGet, "fashion.localhost", "/media/", nil, "")
	assert.Empty(t, data(t, resp)["files"])
}

func TestMediaUploadErrors(t *testing.T) {
	t.Parallel()
	e := setup(t)

	body, ct := multipartBody(t, "file", "big.bin", strings.Repeat("x", 32))
	rec, resp := e.do(t, http.MethodPost, "techstore.localhost", "/media/", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "file_too_large", resp.Error.Code)

	body, ct = multipartBody(t, "document", "a.txt", "x")
	rec, resp = e.do(t, http.MethodPost, "techstore.localhost", "/media/", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_upload", resp.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec, resp := e.do(t, http.MethodGet, "techstore.localhost", "/nope/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp.Error.Code)

	rec, _ = e.do(t, http.MethodDelete, "techstore.localhost", "/data/", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want handler.HTTPError
		ok   bool
	}{
		{tenant.ErrNoTenantInContext, storefront.ErrTenantRequired, true},
		{errors.Join(errors.New("x"), media.ErrInvalidKey), storefront.ErrInvalidUpload, true},
		{media.ErrUnavailable, handler.ErrServiceUnavailable, true},
		{tenant.ErrInactiveTenant, storefront.ErrTenantInactive, true},
		{errors.Join(schema.ErrSwitchFailed, schema.ErrSchemaNotFound), storefront.ErrSchemaSwitch, true},
		{errors.New("other"), handler.HTTPError{}, false},
	}
	for _, tt := range tests {
		got, ok := storefront.MapError(tt.err)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}
