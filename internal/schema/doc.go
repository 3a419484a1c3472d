// Package schema validates table writes against CUE definitions.
//
// A schema file declares one top-level field per table:
//
//	#Trip: {
//		id:      string
//		origin:  string
//		status:  "open" | "closed" | "pending"
//		weight?: number & >0
//		...
//	}
//
//	trips: #Trip
//
// Every record written through the query builder is unified with its
// table's value and must validate concretely, so required fields must be
// present and every constraint must hold. Tables without an entry are not
// checked. Seeding bypasses schemas entirely.
//
// Registry implements query.Validator.
package schema
