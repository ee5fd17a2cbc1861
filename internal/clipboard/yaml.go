package clipboard

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of an exported or imported outline.
type Document struct {
	Notes []Snapshot `yaml:"notes"`
}

// MarshalYAML encodes snapshots as a YAML document.
func MarshalYAML(snaps []Snapshot) ([]byte, error) {
	out, err := yaml.Marshal(Document{Notes: snaps})
	if err != nil {
		return nil, fmt.Errorf("clipboard: marshal yaml: %w", err)
	}
	return out, nil
}

// UnmarshalYAML decodes a YAML document produced by MarshalYAML. A bare list
// of notes is accepted too.
func UnmarshalYAML(data []byte) ([]Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Notes != nil {
		return doc.Notes, validate(doc.Notes)
	}
	var list []Snapshot
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("clipboard: unmarshal yaml: %w", err)
	}
	return list, validate(list)
}

func validate(snaps []Snapshot) error {
	for _, s := range snaps {
		if !s.TaskStatus.Valid() {
			return fmt.Errorf("clipboard: unknown task status %q", s.TaskStatus)
		}
		if err := validate(s.Children); err != nil {
			return err
		}
	}
	return nil
}
