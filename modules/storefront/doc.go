// Package storefront serves the tenant-aware JSON endpoints of the
// marketplace: diagnostics about the resolved tenant and schema, the tenant
// catalog (products and orders) and per-tenant media files.
//
// Every handler relies on the tenant middleware having run first. The request
// context then carries the tenant (if any) and a schema session bound to a
// dedicated connection, so handlers and services never pick a schema
// themselves.
//
//	r.Group(func(r chi.Router) {
//		r.Use(tenant.Middleware(registryStore, schema.FromPool(pool)))
//		r.Mount("/", storefront.Router(storefront.RouterOptions{
//			Info:    storefront.NewInfoService(registryStore, mediaStore, settings, log),
//			Catalog: storefront.NewCatalogService(catalog.New(log)),
//			Media:   storefront.NewMediaService(mediaStore, maxUpload),
//		}, errorHandler))
//	})
package storefront
