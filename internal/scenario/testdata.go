package scenario

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credential is one username/password record from the configured user pool.
type Credential struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// TestData is the nested key-value store scripts substitute values from,
// plus the credential pool. Read-only during a run.
type TestData struct {
	Users  []Credential
	values map[string]interface{}
}

// testDataWire is the raw document shape; everything except users is kept
// as an arbitrary nested tree.
type testDataWire struct {
	Users []Credential `json:"users" yaml:"users"`
}

// UnmarshalJSON decodes the fixed users pool and retains the full tree for
// dotted-path lookups.
func (d *TestData) UnmarshalJSON(data []byte) error {
	var wire testDataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	d.Users = wire.Users
	d.values = tree
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML suites.
func (d *TestData) UnmarshalYAML(node *yaml.Node) error {
	var wire testDataWire
	if err := node.Decode(&wire); err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := node.Decode(&tree); err != nil {
		return err
	}
	d.Users = wire.Users
	d.values = tree
	return nil
}

// NewTestData builds a context directly from a value tree, mainly for
// tests and programmatic suites.
func NewTestData(users []Credential, values map[string]interface{}) *TestData {
	return &TestData{Users: users, values: values}
}

// Lookup traverses the value tree along a dotted path. The second return
// is false when any path segment is missing or a leaf is reached early.
func (d *TestData) Lookup(path string) (interface{}, bool) {
	if d == nil || d.values == nil {
		return nil, false
	}

	var current interface{} = d.values
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
