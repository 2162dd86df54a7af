// Package catalog declares the fixed report tool set, its argument schemas
// and the preconditions each tool must satisfy before dispatch.
//
// Invariants:
// - The tool set is closed and defined once at construction.
// - Arguments are schema-validated (no additional properties) before preconditions run.
// - Preconditions are pure predicates over the report state, arguments and Env.
//
// Usage:
//
//	cat := catalog.MustNew()
//	tool, err := cat.Lookup("add_section")
//	if err == nil {
//		err = cat.ValidateArguments(string(tool.Name), args)
//	}
//	if err == nil {
//		err = catalog.CheckPreconditions(tool, state, args, env)
//	}
package catalog
