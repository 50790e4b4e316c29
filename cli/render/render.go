// Package render writes flume CLI output: session summaries, decoded
// payload lists, and capture records.
//
// Format selection:
//   - --format always wins
//   - otherwise table on a TTY, json when piped
//
// --no-color applies to table output only; the TUI carries its own
// styling.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/tessellate-io/flume/cli/tui"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string. Empty input is returned as-is so
// the caller can apply the TTY default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer writes command output in one configured format.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from the CLI context, applying the TTY
// default when --format is absent.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render writes data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		return enc.Encode(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI hands data to the interactive viewer for the given view.
// The viewer validates the view name and rejects unsupported ones.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	return tui.Run(viewType, data)
}

// renderTable routes slices to a columnar listing and everything else
// to a key/value record.
func (r *Renderer) renderTable(data any) error {
	v := reflect.Indirect(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice {
		return r.renderListing(v)
	}
	return r.renderRecord(v, data)
}

// renderListing writes one row per element under a shared header row.
// Payload listings are map-keyed, so columns come out sorted to keep
// the output stable across runs.
func (r *Renderer) renderListing(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	cols := columns(v.Index(0))
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	for i := 0; i < v.Len(); i++ {
		fmt.Fprintln(w, strings.Join(row(v.Index(i), cols), "\t"))
	}
	return nil
}

// renderRecord writes a single value as "name: value" lines, the shape
// used for session summaries and capture metadata.
func (r *Renderer) renderRecord(v reflect.Value, data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			fmt.Fprintf(w, "%s:\t%s\n", columnName(t.Field(i)), cell(v.Field(i)))
		}
	case reflect.Map:
		for _, key := range sortedKeys(v) {
			fmt.Fprintf(w, "%s:\t%s\n", key, cell(v.MapIndex(reflect.ValueOf(key))))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}
	return nil
}

// columns derives the header row from the first element: json tag names
// for structs, sorted keys for maps.
func columns(v reflect.Value) []string {
	v = reflect.Indirect(v)
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		cols := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			cols = append(cols, columnName(t.Field(i)))
		}
		return cols
	case reflect.Map:
		return sortedKeys(v)
	}
	return nil
}

func row(v reflect.Value, cols []string) []string {
	v = reflect.Indirect(v)
	cells := make([]string, 0, len(cols))
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			cells = append(cells, cell(v.Field(i)))
		}
	case reflect.Map:
		for _, col := range cols {
			cells = append(cells, cell(v.MapIndex(reflect.ValueOf(col))))
		}
	}
	return cells
}

// columnName prefers the json tag so table and json output agree on
// field naming.
func columnName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

// sortedKeys returns the string keys of a map in sorted order. Only
// string-keyed maps (payloads, headers) reach table rendering.
func sortedKeys(v reflect.Value) []string {
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, fmt.Sprintf("%v", k.Interface()))
	}
	sort.Strings(keys)
	return keys
}

// cell formats a single table cell. Aggregates collapse to a count so
// rows stay one line; raw byte payloads report their size.
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("%d bytes", v.Len())
		}
		return fmt.Sprintf("%d items", v.Len())
	case reflect.Map:
		return fmt.Sprintf("%d keys", v.Len())
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// isTTY reports whether the file is a character device.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
