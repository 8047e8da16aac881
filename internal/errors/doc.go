// Package errors provides the structured error type for SSR render
// failures.
//
// Every failure produced by the SSR transports and the response decoder
// is a *RenderError with one of five kinds:
//   - not_configured: operator misconfiguration, fix before use
//   - transport_unreachable: the dev server or worker pool cannot be
//     reached (transient, retry on a later render cycle)
//   - parse: the rendering process rejected the component source, with
//     file/line/column and a source frame
//   - runtime: the component threw while rendering, with a stack trace
//   - unexpected_status: the transport answered with a shape this
//     package does not recognize (raw body attached for diagnosis)
//
// # Usage
//
//	err := errors.Parse("Unexpected token", &errors.Location{
//	    File: "src/Card.vue", Line: 15, Column: 12,
//	}, frame)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR [parse] Unexpected token
//	//
//	//   src/Card.vue:15:12
//	//
//	//     13 |   <div class="card">
//	//     14 |     <slot name="header" />
//	//   > 15 |     {{ title.
//	//        |              ^
//	//
// Kinds are comparable with Is/As via the standard errors package.
package errors
