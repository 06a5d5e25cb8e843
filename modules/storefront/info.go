package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/pkg/environment"
	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/provision"
)

// Directory lists registered tenants. registry.Store satisfies it.
type Directory interface {
	ListTenants(ctx context.Context) ([]*tenant.Tenant, error)
	PrimaryDomains(ctx context.Context) (map[string]string, error)
}

// Settings describes the deployment for the diagnostic endpoints.
type Settings struct {
	MediaBackend    string
	MiddlewareOrder []string
}

// DefaultMiddlewareOrder is the chain installed by the serve command.
var DefaultMiddlewareOrder = []string{"requestid", "clientip", "recoverer", "strip_slashes", "environment", "tenant", "require_tenant"}

// InfoService answers the diagnostic endpoints on every host.
type InfoService struct {
	dir      Directory
	media    media.Storage
	settings Settings
	logger   *slog.Logger
}

func NewInfoService(dir Directory, store media.Storage, settings Settings, log *slog.Logger) *InfoService {
	if log == nil {
		log = logger.Discard()
	}
	if settings.MiddlewareOrder == nil {
		settings.MiddlewareOrder = DefaultMiddlewareOrder
	}
	return &InfoService{dir: dir, media: store, settings: settings, logger: log}
}

func (s *InfoService) Register(r chi.Router, eh handler.ErrorHandler[handler.Context]) {
	r.Get("/", route(s.home, eh))
	r.Get("/schema-info", route(s.schemaInfo, eh))
	r.Get("/request-flow", route(s.requestFlow, eh))
	r.Get("/config", route(s.config, eh))
	r.Get("/media-info", route(s.mediaInfo, eh))
	r.Get("/db-routing", route(s.dbRouting, eh))
}

type tenantLink struct {
	Name   string `json:"name"`
	Schema string `json:"schema_name"`
	URL    string `json:"url,omitempty"`
}

type homeResponse struct {
	Message          string       `json:"message"`
	Schema           string       `json:"schema"`
	Tenant           string       `json:"tenant"`
	AvailableTenants []tenantLink `json:"available_tenants"`
}

func (s *InfoService) home(ctx handler.Context, _ struct{}) handler.Response {
	links, err := s.tenantLinks(ctx, portOf(ctx.Request().Host))
	if err != nil {
		return handler.Fail(err)
	}

	t, _ := tenant.FromContext(ctx)
	msg := "This is the public schema"
	if t != nil {
		msg = fmt.Sprintf("Welcome to %s", t.Name)
	}
	return handler.JSON(homeResponse{
		Message:          msg,
		Schema:           schema.FromContext(ctx),
		Tenant:           tenant.DisplayName(t),
		AvailableTenants: links,
	})
}

type schemaInfoResponse struct {
	CurrentSchema string       `json:"current_schema"`
	SearchPath    string       `json:"search_path,omitempty"`
	Tenant        string       `json:"tenant"`
	Domain        string       `json:"domain"`
	AllTenants    []tenantLink `json:"all_tenants"`
}

func (s *InfoService) schemaInfo(ctx handler.Context, _ struct{}) handler.Response {
	links, err := s.tenantLinks(ctx, "")
	if err != nil {
		return handler.Fail(err)
	}
	t, _ := tenant.FromContext(ctx)
	return handler.JSON(schemaInfoResponse{
		CurrentSchema: schema.FromContext(ctx),
		SearchPath:    s.searchPath(ctx),
		Tenant:        tenant.DisplayName(t),
		Domain:        ctx.Request().Host,
		AllTenants:    links,
	})
}

type flowStep struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

type requestFlowResponse struct {
	CurrentState struct {
		Domain   string `json:"domain"`
		Tenant   string `json:"tenant"`
		Schema   string `json:"schema"`
		IsPublic bool   `json:"is_public"`
	} `json:"current_state"`
	Flow []flowStep `json:"request_flow"`
}

func (s *InfoService) requestFlow(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	t, _ := tenant.FromContext(ctx)
	name := schema.FromContext(ctx)

	var resp requestFlowResponse
	resp.CurrentState.Domain = r.Host
	resp.CurrentState.Tenant = tenant.DisplayName(t)
	resp.CurrentState.Schema = name
	resp.CurrentState.IsPublic = schema.IsPublic(name)

	resolved := "No tenant, using public schema"
	if t != nil {
		resolved = fmt.Sprintf("Tenant %s owns schema %s", t.Name, t.SchemaName)
	}
	resp.Flow = []flowStep{
		{1, "request received", fmt.Sprintf("host %s, path %s", r.Host, r.URL.Path)},
		{2, "host normalized", "port stripped, lowercased, validated as a hostname"},
		{3, "domain lookup", "cache first, then SELECT ... FROM public.domains WHERE domain = $1"},
		{4, "tenant resolved", resolved},
		{5, "connection acquired", "a dedicated pooled connection is reserved for this request"},
		{6, "schema switched", "SET search_path TO " + schema.SearchPath(name)},
		{7, "handler running", "queries resolve unqualified tables in the active schema"},
		{8, "schema restored", "search_path is reset to public before the connection returns to the pool"},
	}
	return handler.JSON(resp)
}

type configResponse struct {
	PublicSchema    string              `json:"public_schema"`
	Environment     string              `json:"environment"`
	Entities        map[string][]string `json:"entities"`
	MiddlewareOrder []string            `json:"middleware_order"`
	TenantHeaders   []string            `json:"tenant_headers"`
	MediaBackend    string              `json:"media_backend"`
	CurrentRequest  struct {
		Domain string `json:"domain"`
		Tenant string `json:"tenant"`
		Schema string `json:"schema"`
	} `json:"current_request"`
}

func (s *InfoService) config(ctx handler.Context, _ struct{}) handler.Response {
	var resp configResponse
	resp.PublicSchema = schema.Public
	resp.Environment = string(environment.FromContext(ctx))
	resp.Entities = map[string][]string{
		string(provision.ScopeShared): entityNames(provision.SharedEntities()),
		string(provision.ScopeTenant): entityNames(provision.TenantEntities()),
	}
	resp.MiddlewareOrder = s.settings.MiddlewareOrder
	resp.TenantHeaders = []string{tenant.HeaderSchema, tenant.HeaderName}
	resp.MediaBackend = s.settings.MediaBackend

	t, _ := tenant.FromContext(ctx)
	resp.CurrentRequest.Domain = ctx.Request().Host
	resp.CurrentRequest.Tenant = tenant.DisplayName(t)
	resp.CurrentRequest.Schema = schema.FromContext(ctx)
	return handler.JSON(resp)
}

type mediaInfoResponse struct {
	Tenant    string `json:"tenant"`
	Schema    string `json:"schema"`
	MediaRoot string `json:"media_root"`
	MediaURL  string `json:"media_url"`
	Backend   string `json:"backend"`
}

func (s *InfoService) mediaInfo(ctx handler.Context, _ struct{}) handler.Response {
	name := schema.FromContext(ctx)
	scoped := media.ForSchema(s.media, name)

	owner := "Public"
	if t, ok := tenant.FromContext(ctx); ok {
		owner = t.Name
	}
	root := scoped.Dir()
	if root == "" {
		root = "/"
	}
	return handler.JSON(mediaInfoResponse{
		Tenant:    owner,
		Schema:    name,
		MediaRoot: root,
		MediaURL:  scoped.URL(),
		Backend:   s.settings.MediaBackend,
	})
}

type tableRoute struct {
	Table     string `json:"table"`
	Scope     string `json:"scope"`
	Qualified string `json:"qualified,omitempty"`
	SQL       string `json:"sql,omitempty"`
}

type dbRoutingResponse struct {
	CurrentSchema string       `json:"current_schema"`
	SearchPath    string       `json:"search_path"`
	ProductsCount *int64       `json:"products_count"`
	TenantsCount  int64        `json:"tenants_count"`
	Routes        []tableRoute `json:"routes"`
}

// dbRouting shows where unqualified queries land for the current request.
// Tenant tables resolve through the first search_path entry; shared tables
// are always qualified with public.
func (s *InfoService) dbRouting(ctx handler.Context, _ struct{}) handler.Response {
	q, err := schema.QuerierFromContext(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	name := schema.FromContext(ctx)
	resp := dbRoutingResponse{
		CurrentSchema: name,
		SearchPath:    schema.SearchPath(name),
	}

	if !schema.IsPublic(name) {
		var n int64
		if err := q.QueryRow(ctx, "SELECT count(*) FROM products").Scan(&n); err != nil {
			return handler.Fail(err)
		}
		resp.ProductsCount = &n
	}
	if err := q.QueryRow(ctx, "SELECT count(*) FROM public.tenants").Scan(&resp.TenantsCount); err != nil {
		return handler.Fail(err)
	}

	for _, e := range provision.TenantEntities() {
		tr := tableRoute{Table: e.Name, Scope: string(provision.ScopeTenant)}
		// Tenant tables do not exist in public.
		if !schema.IsPublic(name) {
			tr.Qualified = pgx.Identifier{name, e.Name}.Sanitize()
			tr.SQL = "SELECT * FROM " + tr.Qualified
		}
		resp.Routes = append(resp.Routes, tr)
	}
	for _, e := range provision.SharedEntities() {
		qualified := pgx.Identifier{schema.Public, e.Name}.Sanitize()
		resp.Routes = append(resp.Routes, tableRoute{
			Table:     e.Name,
			Scope:     string(provision.ScopeShared),
			Qualified: qualified,
			SQL:       "SELECT * FROM " + qualified,
		})
	}
	return handler.JSON(resp)
}

// tenantLinks lists active tenants with a URL on their primary domain.
func (s *InfoService) tenantLinks(ctx context.Context, port string) ([]tenantLink, error) {
	tenants, err := s.dir.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	primary, err := s.dir.PrimaryDomains(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]tenantLink, 0, len(tenants))
	for _, t := range tenants {
		if !t.Active {
			continue
		}
		link := tenantLink{Name: t.Name, Schema: t.SchemaName}
		if host, ok := primary[t.SchemaName]; ok {
			if port != "" {
				host = net.JoinHostPort(host, port)
			}
			link.URL = "http://" + host
		}
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Schema < links[j].Schema })
	return links, nil
}

// searchPath reads the live search_path from the request connection.
// It returns "" when no session is bound.
func (s *InfoService) searchPath(ctx context.Context) string {
	q, err := schema.QuerierFromContext(ctx)
	if err != nil {
		return ""
	}
	var path string
	if err := q.QueryRow(ctx, "SHOW search_path").Scan(&path); err != nil {
		s.logger.WarnContext(ctx, "failed to read search_path", logger.Error(err))
		return ""
	}
	return path
}

func entityNames(entities []provision.Entity) []string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names
}

func portOf(host string) string {
	_, port, err := net.SplitHostPort(host)
	if err != nil {
		return ""
	}
	return port
}
