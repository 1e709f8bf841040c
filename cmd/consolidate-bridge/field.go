package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
)

func runFieldNoun(args []string) int {
	action, actionArgs, code, ok := nounAction(args, printFieldHelp)
	if !ok {
		return code
	}
	switch action {
	case "token":
		return runFieldToken(actionArgs)
	case "kind":
		return runFieldKind(actionArgs)
	case "encode":
		return runFieldEncode(actionArgs)
	default:
		return unknownAction("field", action)
	}
}

func printFieldHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  consolidate-bridge field token  --key <key> --type <ValueType> [--selection Single|List]
  consolidate-bridge field kind   --type <ValueType> [--selection Single|List]
  consolidate-bridge field encode --token <token> --value <json or text>

encode prints the GraphQL field input for a value. A --value that is not
valid JSON is taken as a plain string.
`)
}

func runFieldToken(args []string) int {
	fs := newFlagSet("token")
	key := fs.String("key", "", "Field key")
	vt := fs.String("type", "", "Value type")
	st := fs.String("selection", string(fieldvalue.Single), "Selection type")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	meta := fieldvalue.FieldMetaData{
		Key:           *key,
		ValueType:     fieldvalue.ValueType(*vt),
		SelectionType: fieldvalue.SelectionType(*st),
	}
	// Round-trip through the decoder so invalid input is reported.
	if _, err := fieldvalue.DecodeToken(meta.EncodeToken()); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid field: %v\n", err)
		return 1
	}
	fmt.Println(meta.EncodeToken())
	return 0
}

func runFieldKind(args []string) int {
	fs := newFlagSet("kind")
	vt := fs.String("type", "", "Value type")
	st := fs.String("selection", string(fieldvalue.Single), "Selection type")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *vt == "" {
		fmt.Fprintln(os.Stderr, "--type is required")
		return 1
	}
	fmt.Println(fieldvalue.InputKind(fieldvalue.ValueType(*vt), fieldvalue.SelectionType(*st)))
	return 0
}

func runFieldEncode(args []string) int {
	fs := newFlagSet("encode")
	token := fs.String("token", "", "Field metadata token")
	value := fs.String("value", "", "Raw value")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	meta, err := fieldvalue.DecodeToken(*token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token: %v\n", err)
		return 1
	}

	var raw any
	if err := json.Unmarshal([]byte(*value), &raw); err != nil {
		raw = *value
	}

	wire, err := fieldvalue.Value(raw, meta.ValueType, meta.SelectionType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
		return 1
	}
	return printJSON(fieldvalue.FieldInput{Key: meta.Key, Value: wire})
}
