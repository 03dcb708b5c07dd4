// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Document is an in-memory Terraform state document. It is materialized from
// pulled text, mutated, and either discarded (dry-run) or encoded and pushed
// back. Documents own their Resources outright; moving a resource between
// documents always goes through a deep copy.
type Document struct {
	Version          int
	TerraformVersion string
	Serial           uint64
	Lineage          string

	// Outputs is never inspected, only carried.
	Outputs json.RawMessage

	Resources []*Resource

	// extra holds top-level keys we don't model (check_results and whatever
	// future format versions add), re-emitted on encode.
	extra map[string]json.RawMessage
}

// Resource is one entry in the document's resources sequence.
type Resource struct {
	Module    string // raw module address, "" for the root module
	Mode      string // managed or data
	Type      string
	Name      string
	Provider  string
	EachMode  string // "" when not using count/for_each; else list or map
	Instances []*Instance

	extra map[string]json.RawMessage
}

// Instance is one instance of a resource, keyed by its optional index.
type Instance struct {
	// IndexKey is the raw JSON index (string or number), nil when the
	// resource has no each mode.
	IndexKey     json.RawMessage
	Dependencies []string

	// Attributes, SensitiveAttributes and Private are opaque.
	Attributes          json.RawMessage
	SensitiveAttributes json.RawMessage
	Private             json.RawMessage

	extra map[string]json.RawMessage
}

// ParseError reports malformed or structurally unexpected document text.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state parse: %s: %v", e.Reason, e.Err)
	}
	return "state parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read decodes pulled state text. Structurally invalid input (not an object,
// missing required scalars) is rejected with ParseError; unknown fields at
// every level are retained for re-encode.
func Read(src []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(src, &top); err != nil {
		return nil, &ParseError{Reason: "document is not a JSON object", Err: err}
	}

	doc := &Document{extra: map[string]json.RawMessage{}}

	if err := requireScalar(top, "version", &doc.Version); err != nil {
		return nil, err
	}
	if err := requireScalar(top, "serial", &doc.Serial); err != nil {
		return nil, err
	}
	if err := requireScalar(top, "lineage", &doc.Lineage); err != nil {
		return nil, err
	}
	if raw, ok := top["terraform_version"]; ok {
		if err := json.Unmarshal(raw, &doc.TerraformVersion); err != nil {
			return nil, &ParseError{Reason: "terraform_version is not a string", Err: err}
		}
	}

	doc.Outputs = normRaw(top["outputs"])

	if raw, ok := top["resources"]; ok {
		var entries []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &ParseError{Reason: "resources is not an array of objects", Err: err}
		}
		doc.Resources = make([]*Resource, 0, len(entries))
		for i, entry := range entries {
			r, err := readResource(entry)
			if err != nil {
				return nil, &ParseError{Reason: fmt.Sprintf("resources[%d]", i), Err: err}
			}
			doc.Resources = append(doc.Resources, r)
		}
	}

	for k, v := range top {
		switch k {
		case "version", "terraform_version", "serial", "lineage", "outputs", "resources":
		default:
			doc.extra[k] = normRaw(v)
		}
	}

	return doc, nil
}

func requireScalar(top map[string]json.RawMessage, key string, dst any) error {
	raw, ok := top[key]
	if !ok {
		return &ParseError{Reason: "missing required field " + key}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ParseError{Reason: "invalid " + key, Err: err}
	}
	return nil
}

func readResource(entry map[string]json.RawMessage) (*Resource, error) {
	r := &Resource{extra: map[string]json.RawMessage{}}

	strFields := map[string]*string{
		"module":   &r.Module,
		"mode":     &r.Mode,
		"type":     &r.Type,
		"name":     &r.Name,
		"provider": &r.Provider,
		"each":     &r.EachMode,
	}
	for key, dst := range strFields {
		if raw, ok := entry[key]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				return nil, fmt.Errorf("%s is not a string: %w", key, err)
			}
		}
	}
	if r.Mode == "" || r.Type == "" || r.Name == "" {
		return nil, fmt.Errorf("missing mode/type/name")
	}

	if raw, ok := entry["instances"]; ok {
		var instances []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &instances); err != nil {
			return nil, fmt.Errorf("instances is not an array: %w", err)
		}
		r.Instances = make([]*Instance, 0, len(instances))
		for _, inst := range instances {
			i, err := readInstance(inst)
			if err != nil {
				return nil, err
			}
			r.Instances = append(r.Instances, i)
		}
	}

	for k, v := range entry {
		switch k {
		case "module", "mode", "type", "name", "provider", "each", "instances":
		default:
			r.extra[k] = normRaw(v)
		}
	}

	return r, nil
}

func readInstance(entry map[string]json.RawMessage) (*Instance, error) {
	i := &Instance{extra: map[string]json.RawMessage{}}

	i.IndexKey = normRaw(entry["index_key"])
	i.Attributes = normRaw(entry["attributes"])
	i.SensitiveAttributes = normRaw(entry["sensitive_attributes"])
	i.Private = normRaw(entry["private"])

	if raw, ok := entry["dependencies"]; ok {
		if err := json.Unmarshal(raw, &i.Dependencies); err != nil {
			return nil, fmt.Errorf("dependencies is not a string array: %w", err)
		}
	}

	for k, v := range entry {
		switch k {
		case "index_key", "attributes", "sensitive_attributes", "private", "dependencies":
		default:
			i.extra[k] = normRaw(v)
		}
	}

	return i, nil
}

// Bytes encodes the document back to state text. Key order within objects is
// whatever encoding/json produces for a map (sorted), which `state push` is
// indifferent to; resource and instance order is preserved exactly.
func (d *Document) Bytes() ([]byte, error) {
	top := map[string]json.RawMessage{}
	for k, v := range d.extra {
		top[k] = v
	}

	top["version"] = mustRaw(d.Version)
	top["serial"] = mustRaw(d.Serial)
	top["lineage"] = mustRaw(d.Lineage)
	if d.TerraformVersion != "" {
		top["terraform_version"] = mustRaw(d.TerraformVersion)
	}
	if d.Outputs != nil {
		top["outputs"] = d.Outputs
	}

	resources := make([]json.RawMessage, 0, len(d.Resources))
	for _, r := range d.Resources {
		raw, err := r.marshal()
		if err != nil {
			return nil, err
		}
		resources = append(resources, raw)
	}
	top["resources"] = mustRaw(resources)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(top); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Resource) marshal() (json.RawMessage, error) {
	entry := map[string]json.RawMessage{}
	for k, v := range r.extra {
		entry[k] = v
	}

	if r.Module != "" {
		entry["module"] = mustRaw(r.Module)
	}
	entry["mode"] = mustRaw(r.Mode)
	entry["type"] = mustRaw(r.Type)
	entry["name"] = mustRaw(r.Name)
	if r.Provider != "" {
		entry["provider"] = mustRaw(r.Provider)
	}
	if r.EachMode != "" {
		entry["each"] = mustRaw(r.EachMode)
	}

	instances := make([]json.RawMessage, 0, len(r.Instances))
	for _, i := range r.Instances {
		instances = append(instances, i.marshal())
	}
	entry["instances"] = mustRaw(instances)

	return mustRaw(entry), nil
}

func (i *Instance) marshal() json.RawMessage {
	entry := map[string]json.RawMessage{}
	for k, v := range i.extra {
		entry[k] = v
	}

	if i.IndexKey != nil {
		entry["index_key"] = i.IndexKey
	}
	if i.Attributes != nil {
		entry["attributes"] = i.Attributes
	}
	if i.SensitiveAttributes != nil {
		entry["sensitive_attributes"] = i.SensitiveAttributes
	}
	if i.Private != nil {
		entry["private"] = i.Private
	}
	if i.Dependencies != nil {
		entry["dependencies"] = mustRaw(i.Dependencies)
	}

	return mustRaw(entry)
}

// normRaw compacts a raw fragment so that documents compare equal regardless
// of how the source text was indented.
func normRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only reaches here on unmarshalable Go types, which would be a
		// programming error.
		panic(err)
	}
	return raw
}

// New returns an empty v4 document for a directory that has no state yet.
// The lineage is fresh: a bootstrap document is a new history line, never a
// borrowed one.
func New(terraformVersion string) *Document {
	return &Document{
		Version:          4,
		TerraformVersion: terraformVersion,
		Serial:           0,
		Lineage:          uuid.NewString(),
		extra:            map[string]json.RawMessage{},
	}
}

// Finalize applies the write policy for a document about to be pushed:
// serial is bumped by exactly one, lineage stays what it was when pulled.
func (d *Document) Finalize() {
	d.Serial++
}

// Copy returns a deep copy of the resource, so a moved entry never remains
// live in two documents at once.
func (r *Resource) Copy() *Resource {
	out := &Resource{
		Module:   r.Module,
		Mode:     r.Mode,
		Type:     r.Type,
		Name:     r.Name,
		Provider: r.Provider,
		EachMode: r.EachMode,
		extra:    copyRawMap(r.extra),
	}
	out.Instances = make([]*Instance, 0, len(r.Instances))
	for _, i := range r.Instances {
		out.Instances = append(out.Instances, i.Copy())
	}
	return out
}

// Copy returns a deep copy of the instance.
func (i *Instance) Copy() *Instance {
	out := &Instance{
		IndexKey:            copyRaw(i.IndexKey),
		Attributes:          copyRaw(i.Attributes),
		SensitiveAttributes: copyRaw(i.SensitiveAttributes),
		Private:             copyRaw(i.Private),
		extra:               copyRawMap(i.extra),
	}
	if i.Dependencies != nil {
		out.Dependencies = append([]string(nil), i.Dependencies...)
	}
	return out
}

func copyRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func copyRawMap(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = copyRaw(v)
	}
	return out
}

// IndexKeyString renders the instance's index for addresses and merge keys:
// [0] for numbers, ["blue"] for strings, "" when there is no index.
func (i *Instance) IndexKeyString() string {
	if i.IndexKey == nil {
		return ""
	}
	return "[" + string(bytes.TrimSpace(i.IndexKey)) + "]"
}
