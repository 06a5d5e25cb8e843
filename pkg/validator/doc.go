// Package validator builds field-level validation from small Rule values.
//
// Each rule pairs a Check func with a ValidationError describing the failure.
// Apply evaluates the rules and aggregates every failure into a
// ValidationErrors value, which implements error:
//
//	err := validator.Apply(
//		validator.RequiredString("name", p.Name),
//		validator.MaxLenString("name", p.Name, 100),
//		validator.ValidEmail("email", p.Email),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//		// render verrs field by field
//	}
//
// Rules are pure values without shared state and are safe for concurrent use.
package validator
