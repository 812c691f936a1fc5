// Package rates implements the temporal rate catalog and the scoped override
// resolver. Base rates are versioned, effective-dated records: a rate is never
// edited in place, its window is closed and a successor is created. Overrides
// replace a base rate's value for a specific owner/cab/shift/day scope and are
// ranked by computed specificity priority.
package rates
