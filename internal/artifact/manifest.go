package artifact

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeJSON serializes the manifest to pretty JSON.
func (m *Manifest) EncodeJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("nil manifest")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return b, nil
}

// EncodeYAML serializes the manifest to YAML. The JSON representation
// is the canonical field naming, so the manifest is routed through it
// rather than duplicating tag sets on every artifact type.
func (m *Manifest) EncodeYAML() ([]byte, error) {
	jb, err := m.EncodeJSON()
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(jb, &tree); err != nil {
		return nil, fmt.Errorf("reshape manifest: %w", err)
	}
	b, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode manifest yaml: %w", err)
	}
	return b, nil
}

// DecodeManifest parses a JSON manifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
