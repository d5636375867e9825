package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ducminh1220/netscope/internal/probe"
)

// writeText renders the report as an indented key/value walk, the same
// shape the JSON export has but readable without tooling.
func writeText(w io.Writer, report *probe.Report) error {
	m, err := reportMap(report)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("NETWORK DIAGNOSTICS REPORT\n")
	b.WriteString("==========================\n\n")
	writeTextValue(&b, m, 0)

	_, err = io.WriteString(w, b.String())
	return err
}

func writeTextValue(b *strings.Builder, value any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch child := v[k].(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s%s:\n", indent, k)
				writeTextValue(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s%s: %s\n", indent, k, scalarString(child))
			}
		}
	case []any:
		for i, item := range v {
			switch child := item.(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s- [%d]\n", indent, i)
				writeTextValue(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s- %s\n", indent, scalarString(child))
			}
		}
	default:
		fmt.Fprintf(b, "%s%s\n", indent, scalarString(v))
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case float64:
		return trimFloat(s)
	default:
		return fmt.Sprint(s)
	}
}
