// Package billing computes the money side of a statement period.
//
// This package implements the charge computation bounded context, which is
// responsible for:
//   - Combining resolved base and per-unit rates with driven usage into
//     lease charge breakdowns
//   - Expanding recurring and one-time expense charges into dated
//     occurrences, with targets resolved per occurrence date
//   - Assembling a person's draft statement for a period from lease
//     charges, expense occurrences and credited revenue
//
// Key services:
//   - ChargeCalculator: pure computation over resolved rates and usage
//   - StatementBuilder: gathers a period's line items into a DRAFT statement
//
// The billing domain reads rates through the rates resolver, expense
// configuration through the expense target resolver, and master data
// through the masterdata ports. It never mutates any of them.
package billing
