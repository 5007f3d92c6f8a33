package toolstate

import (
	"log/slog"
	"net/url"

	"github.com/AutelysZ/toolstate/schema"
)

// encodeMirror projects a state into its address-bar representation: one
// key per schema field, percent-encoded by url.Values on output.
//
// A field whose serialized form exceeds limit bytes — or fails to serialize
// at all — is excluded from the mirror and reported in the oversize set; it
// stays live in the state. A field at exactly the limit is included.
func encodeMirror(sch *schema.Schema, st schema.State, limit int, logger *slog.Logger) (url.Values, map[string]bool) {
	values := url.Values{}
	oversize := map[string]bool{}
	for _, f := range sch.Fields() {
		encoded, err := sch.Encode(f.Name, st[f.Name])
		if err != nil {
			logger.Warn("toolstate: field serialization failed, excluding from mirror",
				"tool", sch.ToolID(), "field", f.Name, "error", err)
			oversize[f.Name] = true
			continue
		}
		if len(encoded) > limit {
			oversize[f.Name] = true
			continue
		}
		values.Set(f.Name, encoded)
	}
	return values, oversize
}

// queryRaw extracts the recognized schema keys from a parsed query as a raw
// string map, reporting whether any recognized key was present. Repeated
// keys keep the first value.
func queryRaw(sch *schema.Schema, query url.Values) (map[string]string, bool) {
	raw := map[string]string{}
	found := false
	for _, f := range sch.Fields() {
		vs, ok := query[f.Name]
		if !ok || len(vs) == 0 {
			continue
		}
		raw[f.Name] = vs[0]
		found = true
	}
	return raw, found
}
