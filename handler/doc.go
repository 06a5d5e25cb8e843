// Package handler provides type-safe JSON request handling.
//
// Handlers are generic functions that receive a typed request and return a
// Response. Wrap converts them into http.HandlerFunc, running binders first
// and routing every failure through a single ErrorHandler:
//
//	func createOrder(ctx handler.Context, req catalog.NewOrder) handler.Response {
//		order, err := orders.CreateOrder(ctx, req)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(order, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	r.Post("/orders/", handler.Wrap(createOrder,
//		handler.WithBinders[handler.Context, catalog.NewOrder](handler.BindJSON(1<<20)),
//	))
//
// # Response envelope
//
// Every body has the shape {"data": ..., "meta": ..., "error": {...}}.
// validator.ValidationErrors render as 422 with per-field details, HTTPError
// values render with their own status and key, and any other error renders as
// a 500 "internal_error" without leaking its message.
//
// # Context
//
// Context embeds the request context, so values stored by middleware such as
// the resolved tenant or the schema session are visible to handlers and to
// the services they call.
package handler
