package graph

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// argKey is one accepted argument: the canonical name plus the keys it may
// be spelled as, in priority order. A nil alias list accepts only the name.
type argKey struct {
	name    string
	aliases []string
}

func (k argKey) accepts() []string {
	if len(k.aliases) == 0 {
		return []string{k.name}
	}
	return k.aliases
}

func key(name string, aliases ...string) argKey {
	return argKey{name: name, aliases: aliases}
}

// normalizeArgs rejects keys outside the whitelist and folds aliases onto
// their canonical names. When several spellings are present the first in
// priority order wins. Nil values count as absent.
func normalizeArgs(raw map[string]any, keys []argKey) (map[string]any, []error) {
	canonical := make(map[string]string)
	var allowed []string
	for _, k := range keys {
		for _, a := range k.accepts() {
			canonical[a] = k.name
			allowed = append(allowed, a)
		}
	}
	sort.Strings(allowed)

	var errs []error
	for _, name := range sortedKeys(raw) {
		if _, ok := canonical[name]; !ok {
			errs = append(errs, &ArgError{
				Key:    name,
				Reason: fmt.Sprintf("unknown argument (allowed: %s)", strings.Join(allowed, ", ")),
			})
		}
	}

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		for _, a := range k.accepts() {
			if v, ok := raw[a]; ok && v != nil {
				out[k.name] = v
				break
			}
		}
	}
	return out, errs
}

// decodeArgs decodes a normalized argument map into a mapstructure-tagged
// struct. Input is weakly typed so YAML ints, JSON floats and numeric
// strings all land in float fields.
func decodeArgs(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       flagHook,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return &ArgError{Reason: err.Error()}
	}
	return nil
}

// flagHook lets boolean flags be spelled yes/no and on/off.
func flagHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Bool || from.Kind() != reflect.String {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func has(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return true
		}
	}
	return false
}

func required(m map[string]any, names ...string) []error {
	var errs []error
	for _, name := range names {
		v, ok := m[name]
		if !ok || v == nil {
			errs = append(errs, &ArgError{Key: name, Reason: "required"})
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			errs = append(errs, &ArgError{Key: name, Reason: "must not be empty"})
		}
	}
	return errs
}
