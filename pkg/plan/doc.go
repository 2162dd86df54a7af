// Package plan records completed report runs as replayable plans and
// persists them by name.
//
// A plan holds only the calls that changed the report: generate_chart,
// add_section, set_theme and the final finalize_report, in the order they
// were applied. Query calls and rejected attempts are kept in a separate
// audit log so a saved plan still explains how the run got there.
//
// Two stores are provided. SQLiteStore keeps every plan in one database
// table. FileStore writes one JSON document per plan and replaces files
// atomically. Both refuse to overwrite an existing name.
package plan
