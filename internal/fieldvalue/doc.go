// Package fieldvalue translates between the generic "field + value type +
// selection type" model the workflow host works with and the typed field
// value inputs of the Consolidate GraphQL API.
//
// Each field is identified by a FieldMetaData token. The host hands back a
// map of token → raw value; BuildFields decodes the tokens and runs each
// value through Value to produce the `fields: [{key, value}]` list used by
// createDataEntry and updateDataEntries.
//
// # List input
//
// Text, RichText and Address lists are entered as JSON arrays. All other list
// types are entered as comma separated text ("1, 2, 3"). A list value that
// cannot be parsed becomes an empty list; it is never an error.
package fieldvalue
