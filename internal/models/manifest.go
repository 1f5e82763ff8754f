package models

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidManifest is returned when a manifest document is not a JSON object.
var ErrInvalidManifest = errors.New("manifest is not a JSON object")

// Dependency is one name → version entry of a manifest.
type Dependency struct {
	Name    string
	Version string
}

// Manifest is a parsed package.json. Dependencies keep the order in which they
// appear in the source document. The raw document is kept so it can be
// returned to callers as-is.
type Manifest struct {
	Name            string
	Version         string
	Description     string
	Dependencies    []Dependency
	DevDependencies []Dependency

	raw json.RawMessage
}

// ParseManifest parses a package.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidManifest
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrInvalidManifest
	}

	m := &Manifest{
		Name:            doc.Get("name").String(),
		Version:         doc.Get("version").String(),
		Description:     doc.Get("description").String(),
		Dependencies:    dependencies(doc.Get("dependencies")),
		DevDependencies: dependencies(doc.Get("devDependencies")),
		raw:             append(json.RawMessage(nil), data...),
	}
	return m, nil
}

func dependencies(section gjson.Result) []Dependency {
	if !section.IsObject() {
		return nil
	}
	var deps []Dependency
	section.ForEach(func(key, value gjson.Result) bool {
		deps = append(deps, Dependency{Name: key.String(), Version: value.String()})
		return true
	})
	return deps
}

// DependencyNames returns up to n runtime dependency names in document order.
func (m *Manifest) DependencyNames(n int) []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, min(n, len(m.Dependencies)))
	for _, d := range m.Dependencies {
		if len(names) == n {
			break
		}
		names = append(names, d.Name)
	}
	return names
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return json.Marshal(manifestJSON{
		Name:            m.Name,
		Version:         m.Version,
		Description:     m.Description,
		Dependencies:    orderedMap(m.Dependencies),
		DevDependencies: orderedMap(m.DevDependencies),
	})
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	parsed, err := ParseManifest(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

type manifestJSON struct {
	Name            string     `json:"name,omitempty"`
	Version         string     `json:"version,omitempty"`
	Description     string     `json:"description,omitempty"`
	Dependencies    orderedMap `json:"dependencies,omitempty"`
	DevDependencies orderedMap `json:"devDependencies,omitempty"`
}

// orderedMap marshals dependencies as a JSON object without sorting keys.
type orderedMap []Dependency

func (o orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, d := range o {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.Version)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}
