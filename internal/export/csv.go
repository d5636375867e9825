package export

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/ducminh1220/netscope/internal/probe"
)

// writeCSV emits one field,value row per flattened report key, sorted
// for deterministic output.
func writeCSV(w io.Writer, report *probe.Report) error {
	m, err := reportMap(report)
	if err != nil {
		return err
	}
	flat := map[string]string{}
	flatten("", m, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"field", "value"}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := cw.Write([]string{k, flat[k]}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
