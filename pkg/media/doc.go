// Package media stores uploaded files on the local filesystem or in an
// S3-compatible bucket, partitioned per tenant.
//
// Every tenant owns the directory returned by TenantDir ("tenant/<schema>");
// the public schema uses the storage root. ForSchema binds a Storage to one
// tenant's directory so handlers never build keys by hand:
//
//	store, err := media.New(ctx, cfg)
//	files := media.ForSchema(store, schema.FromContext(ctx))
//	obj, err := files.Put(ctx, "logo.png", r, size, "image/png")
package media
