package lifecycle

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// formatPluginLogs re-indents the JSON log dump of the extension. It reports
// false when raw is not JSON, in which case raw is returned trimmed.
func formatPluginLogs(raw string) ([]byte, bool) {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return []byte(raw), false
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return []byte(raw), false
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []byte(raw), false
	}
	return append(out, '\n'), true
}

// pluginLogEntries counts the entries of a JSON array dump, or 1 for any
// other JSON value.
func pluginLogEntries(raw string) int {
	r := gjson.Parse(raw)
	if r.IsArray() {
		return len(r.Array())
	}
	return 1
}
