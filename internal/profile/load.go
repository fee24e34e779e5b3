package profile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Format selects the profile document decoder.
type Format int

const (
	// FormatYAML also covers JSON documents, which are valid YAML.
	FormatYAML Format = iota
	FormatTOML
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Warning is a non-fatal problem found while loading a document. The
// affected field keeps its inherited or built-in value.
type Warning struct {
	Profile string
	Field   string
	Msg     string
}

func (w Warning) String() string {
	switch {
	case w.Profile == "" && w.Field == "":
		return w.Msg
	case w.Field == "":
		return fmt.Sprintf("profile %q: %s", w.Profile, w.Msg)
	default:
		return fmt.Sprintf("profile %q: %s: %s", w.Profile, w.Field, w.Msg)
	}
}

// LoadResult is the outcome of Load. Store is always usable.
type LoadResult struct {
	Store    *Store
	Warnings []Warning
	// Fallback is set when the document could not be used at all and the
	// built-in default profile was substituted.
	Fallback bool
}

// Load reads and parses the profile document at path. A missing,
// unreadable or malformed document is never an error: the result then holds
// the built-in default profile and a warning saying why.
func Load(path string) LoadResult {
	data, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("cannot read %s, using defaults: %v", path, err)
		if errors.Is(err, os.ErrNotExist) {
			msg = fmt.Sprintf("config not found at %s, using defaults", path)
		}
		return LoadResult{
			Store:    DefaultStore(),
			Warnings: []Warning{{Msg: msg}},
			Fallback: true,
		}
	}

	store, warnings, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return LoadResult{
			Store:    DefaultStore(),
			Warnings: append(warnings, Warning{Msg: fmt.Sprintf("cannot parse %s, using defaults: %v", path, err)}),
			Fallback: true,
		}
	}
	return LoadResult{Store: store, Warnings: warnings}
}

// Parse builds a Store from a profile document.
//
// Without a "profiles" key the whole document is one flat profile named
// "default". With it, the "default" entry (or the built-in defaults) becomes
// profile 0 and every other entry inherits profile 0's configuration for the
// fields it does not set. Entries past MaxProfiles are dropped and names
// longer than MaxNameLen are truncated.
//
// Only a document that cannot be decoded at all is an error; bad fields are
// reported as warnings.
func Parse(data []byte, format Format) (*Store, []Warning, error) {
	root, err := decodeDocument(data, format)
	if err != nil {
		return nil, nil, err
	}

	p := &parser{}

	// Empty document.
	if root == nil {
		return DefaultStore(), nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nil, errors.New("document root must be an object")
	}

	profilesNode := mappingGet(root, "profiles")
	if profilesNode == nil {
		def := p.parseProfile(root, DefaultName, DefaultConfig())
		return newStore([]Profile{def}), p.warnings, nil
	}

	if profilesNode.Kind != yaml.MappingNode {
		p.warn("", "profiles", "must be an object, using built-in defaults")
		return DefaultStore(), p.warnings, nil
	}

	def := Profile{Name: DefaultName, Config: DefaultConfig()}
	if defNode := mappingGet(profilesNode, DefaultName); defNode != nil {
		def = p.parseProfile(defNode, DefaultName, DefaultConfig())
	}
	profiles := []Profile{def}

	for i := 0; i+1 < len(profilesNode.Content); i += 2 {
		name := profilesNode.Content[i].Value
		if name == DefaultName {
			continue
		}
		if len(profiles) >= MaxProfiles {
			break
		}
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "\r\n") {
			p.warn(name, "", "invalid profile name, skipped")
			continue
		}
		if short := truncateName(name); short != name {
			p.warn(name, "", fmt.Sprintf("name longer than %d bytes, truncated to %q", MaxNameLen, short))
			name = short
		}
		if dup := findFold(profiles, name); dup != "" {
			p.warn(name, "", fmt.Sprintf("duplicates profile %q, skipped", dup))
			continue
		}
		profiles = append(profiles, p.parseProfile(profilesNode.Content[i+1], name, def.Config))
	}

	return newStore(profiles), p.warnings, nil
}

// truncateName cuts name to MaxNameLen bytes on a rune boundary.
func truncateName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	cut := MaxNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func findFold(profiles []Profile, name string) string {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p.Name
		}
	}
	return ""
}

// decodeDocument returns the root node of the document, or nil when empty.
func decodeDocument(data []byte, format Format) (*yaml.Node, error) {
	if format == FormatTOML {
		return decodeTOML(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.AliasNode && root.Alias != nil {
		root = root.Alias
	}
	return root, nil
}

// mappingGet returns the value node for key, or nil. Later duplicates win.
func mappingGet(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	var found *yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			found = m.Content[i+1]
		}
	}
	if found != nil && found.Kind == yaml.AliasNode && found.Alias != nil {
		found = found.Alias
	}
	return found
}

type parser struct {
	warnings []Warning
}

func (p *parser) warn(profile, field, msg string) {
	p.warnings = append(p.warnings, Warning{Profile: profile, Field: field, Msg: msg})
}

// parseProfile decodes one profile object on top of base.
func (p *parser) parseProfile(node *yaml.Node, name string, base Config) Profile {
	prof := Profile{Name: name, Config: base}
	if node.Kind != yaml.MappingNode {
		p.warn(name, "", "profile must be an object, inheriting everything")
		return prof
	}
	c := &prof.Config

	p.intField(node, name, "deadzone", &c.Deadzone, 0, maxDeadzone)
	p.floatField(node, name, "scroll_speed", &c.ScrollSpeed, false, MaxScale)
	p.floatField(node, name, "scroll_exponent", &c.ScrollExponent, true, 0)
	p.floatField(node, name, "zoom_speed", &c.ZoomSpeed, false, MaxScale)
	p.floatField(node, name, "sensitivity", &c.Sensitivity, false, MaxScale)
	p.intField(node, name, "desktop_switch_threshold", &c.DesktopSwitchThreshold, 0, math.MaxInt32)
	p.intField(node, name, "desktop_switch_cooldown_ms", &c.DesktopSwitchCooldownMS, 0, math.MaxInt32)
	p.boolField(node, name, "invert_scroll_x", &c.InvertScrollX)
	p.boolField(node, name, "invert_scroll_y", &c.InvertScrollY)

	p.axisMapping(node, name, c)
	p.buttonMapping(node, name, c)
	prof.WindowClasses = p.windowClasses(node, name)

	return prof
}

// maxDeadzone keeps the curve's normalisation denominator positive.
const maxDeadzone = 349

func (p *parser) intField(node *yaml.Node, profile, key string, dst *int, lo, hi int) {
	v := mappingGet(node, key)
	if v == nil {
		return
	}
	n, err := decodeInt(v)
	if err != nil {
		p.warn(profile, key, err.Error())
		return
	}
	if n < lo || n > hi {
		p.warn(profile, key, fmt.Sprintf("%d out of range [%d, %d]", n, lo, hi))
		return
	}
	*dst = n
}

// floatField decodes a finite number. A non-zero limit also bounds |value|.
func (p *parser) floatField(node *yaml.Node, profile, key string, dst *float64, positive bool, limit float64) {
	v := mappingGet(node, key)
	if v == nil {
		return
	}
	var f float64
	if v.Kind != yaml.ScalarNode || v.Decode(&f) != nil {
		p.warn(profile, key, fmt.Sprintf("expected a number, got %q", v.Value))
		return
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		p.warn(profile, key, "must be finite")
		return
	}
	if positive && f <= 0 {
		p.warn(profile, key, fmt.Sprintf("%g must be > 0", f))
		return
	}
	if limit > 0 && math.Abs(f) > limit {
		p.warn(profile, key, fmt.Sprintf("%g out of range [%g, %g]", f, -limit, limit))
		return
	}
	*dst = f
}

func (p *parser) boolField(node *yaml.Node, profile, key string, dst *bool) {
	v := mappingGet(node, key)
	if v == nil {
		return
	}
	var b bool
	if v.Kind == yaml.ScalarNode && v.Decode(&b) == nil {
		*dst = b
		return
	}
	// 0/1 flags, as older hand-written configs use them.
	if n, err := decodeInt(v); err == nil {
		*dst = n != 0
		return
	}
	p.warn(profile, key, fmt.Sprintf("expected a boolean, got %q", v.Value))
}

func (p *parser) axisMapping(node *yaml.Node, profile string, c *Config) {
	m := mappingGet(node, "axis_mapping")
	if m == nil {
		return
	}
	if m.Kind != yaml.MappingNode {
		p.warn(profile, "axis_mapping", "must be an object")
		return
	}
	for slot, key := range axisKeys {
		v := mappingGet(m, key)
		if v == nil {
			continue
		}
		action, ok := ParseAxisAction(v.Value)
		if v.Kind != yaml.ScalarNode || !ok {
			p.warn(profile, "axis_mapping."+key, fmt.Sprintf("unknown axis action %q", v.Value))
			continue
		}
		c.AxisMap[slot] = action
	}
}

func (p *parser) buttonMapping(node *yaml.Node, profile string, c *Config) {
	m := mappingGet(node, "button_mapping")
	if m == nil {
		return
	}
	if m.Kind != yaml.MappingNode {
		p.warn(profile, "button_mapping", "must be an object")
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		idx, err := strconv.Atoi(strings.TrimSpace(m.Content[i].Value))
		if err != nil || idx < 0 || idx >= NumButtons {
			continue
		}
		v := m.Content[i+1]
		action, ok := ParseButtonAction(v.Value)
		if v.Kind != yaml.ScalarNode || !ok {
			p.warn(profile, "button_mapping."+m.Content[i].Value, fmt.Sprintf("unknown button action %q", v.Value))
			continue
		}
		c.ButtonMap[idx] = action
	}
}

func (p *parser) windowClasses(node *yaml.Node, profile string) []string {
	v := mappingGet(node, "match_wm_class")
	if v == nil {
		return nil
	}
	switch v.Kind {
	case yaml.ScalarNode:
		if v.Value == "" {
			return nil
		}
		return []string{v.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, min(len(v.Content), MaxWindowClasses))
		for _, item := range v.Content {
			if len(out) == MaxWindowClasses {
				break
			}
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				continue
			}
			out = append(out, item.Value)
		}
		return out
	default:
		p.warn(profile, "match_wm_class", "must be a list of strings")
		return nil
	}
}

// decodeInt accepts integers and integral floats ("15", "15.0").
func decodeInt(v *yaml.Node) (int, error) {
	if v.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("expected an integer")
	}
	switch v.ShortTag() {
	case "!!int":
		var n int
		if err := v.Decode(&n); err == nil {
			return n, nil
		}
	case "!!float":
		var f float64
		if err := v.Decode(&f); err == nil && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
			return int(f), nil
		}
	}
	return 0, fmt.Errorf("expected an integer, got %q", v.Value)
}
