package profile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// decodeTOML decodes a TOML document into the same node tree the YAML/JSON
// path produces, so one field walker serves every format. Table key order
// is taken from the TOML metadata so profiles keep their document order.
func decodeTOML(data []byte) (*yaml.Node, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	order := map[string][]string{}
	seen := map[string]bool{}
	for _, key := range md.Keys() {
		if len(key) == 0 {
			continue
		}
		parent := strings.Join(key[:len(key)-1], "\x00")
		id := strings.Join(key, "\x00")
		if seen[id] {
			continue
		}
		seen[id] = true
		order[parent] = append(order[parent], key[len(key)-1])
	}

	return tomlNode(doc, "", order), nil
}

func tomlNode(v any, path string, order map[string][]string) *yaml.Node {
	switch val := v.(type) {
	case map[string]any:
		return tomlMapping(val, path, order)
	case []map[string]any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			seq.Content = append(seq.Content, tomlMapping(item, path, order))
		}
		return seq
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			seq.Content = append(seq.Content, tomlNode(item, path, order))
		}
		return seq
	case string:
		return scalar("!!str", val)
	case bool:
		return scalar("!!bool", strconv.FormatBool(val))
	case int64:
		return scalar("!!int", strconv.FormatInt(val, 10))
	case float64:
		return scalar("!!float", strconv.FormatFloat(val, 'g', -1, 64))
	case time.Time:
		return scalar("!!str", val.Format(time.RFC3339))
	default:
		return scalar("!!str", fmt.Sprint(val))
	}
}

func tomlMapping(m map[string]any, path string, order map[string][]string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	keys := make([]string, 0, len(m))
	placed := map[string]bool{}
	for _, k := range order[path] {
		if _, ok := m[k]; ok && !placed[k] {
			keys = append(keys, k)
			placed[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	for _, k := range keys {
		child := k
		if path != "" {
			child = path + "\x00" + k
		}
		node.Content = append(node.Content, scalar("!!str", k), tomlNode(m[k], child, order))
	}
	return node
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
