// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apex/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/gjson"
	"github.com/zclconf/go-cty/cty"
)

// Settings is the discovered backend configuration of a directory: the
// backend type plus its string-valued config, flattened one level deep
// ("workspaces.name", "workspaces.prefix").
type Settings struct {
	Type   string
	Config map[string]string
}

// Discover works out which backend a directory uses. An initialized
// directory carries the resolved answer in .terraform/terraform.tfstate, so
// that is peeked first. Otherwise the *.tf files are parsed for a
// terraform.backend or terraform.cloud block; only literal attribute values
// are readable that way, which is all the direct backends need.
func Discover(dir string) (*Settings, error) {
	if s, err := peek(dir); err == nil {
		return s, nil
	}

	s, err := scanHCL(dir)
	if err != nil {
		return nil, fmt.Errorf("discover backend in %s: %w", dir, err)
	}
	return s, nil
}

func peek(dir string) (*Settings, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ".terraform", "terraform.tfstate"))
	if err != nil {
		return nil, err
	}

	be := gjson.GetBytes(raw, "backend")
	if !be.Exists() || be.Get("type").String() == "" {
		return nil, fmt.Errorf("%s: no backend recorded in .terraform/terraform.tfstate", dir)
	}

	s := &Settings{Type: be.Get("type").String(), Config: map[string]string{}}
	be.Get("config").ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() {
			value.ForEach(func(k2, v2 gjson.Result) bool {
				if v2.Type == gjson.String {
					s.Config[key.String()+"."+k2.String()] = v2.String()
				}
				return true
			})
			return true
		}
		if value.Type == gjson.String {
			s.Config[key.String()] = value.String()
		}
		return true
	})

	log.Debugf("peeked %s backend from %s", s.Type, dir)
	return s, nil
}

var terraformSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "terraform"}},
}

var terraformBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "backend", LabelNames: []string{"type"}},
		{Type: "cloud"},
	},
}

var backendBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "bucket"}, {Name: "key"}, {Name: "region"},
		{Name: "workspace_key_prefix"},
		{Name: "hostname"}, {Name: "organization"},
		{Name: "path"},
	},
	Blocks: []hcl.BlockHeaderSchema{{Type: "workspaces"}},
}

var workspacesBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "name"}, {Name: "prefix"}},
}

func scanHCL(dir string) (*Settings, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.tf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	parser := hclparse.NewParser()
	for _, path := range paths {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			log.Debugf("skipping unparseable %s: %s", path, diags)
			continue
		}

		content, _, _ := file.Body.PartialContent(terraformSchema)
		for _, tf := range content.Blocks {
			inner, _, _ := tf.Body.PartialContent(terraformBodySchema)
			for _, block := range inner.Blocks {
				s := &Settings{Config: map[string]string{}}
				switch block.Type {
				case "backend":
					s.Type = block.Labels[0]
				case "cloud":
					s.Type = "cloud"
				}
				fillConfig(s, block.Body)
				return s, nil
			}
		}
	}

	return nil, fmt.Errorf("no terraform backend or cloud block found")
}

func fillConfig(s *Settings, body hcl.Body) {
	content, _, _ := body.PartialContent(backendBodySchema)
	for name, attr := range content.Attributes {
		if v := literal(attr); v != "" {
			s.Config[name] = v
		}
	}
	for _, block := range content.Blocks {
		wc, _, _ := block.Body.PartialContent(workspacesBodySchema)
		for name, attr := range wc.Attributes {
			if v := literal(attr); v != "" {
				s.Config["workspaces."+name] = v
			}
		}
	}
}

// literal evaluates an attribute with no variables in scope. Anything
// non-literal (var., local., functions) comes back unknown and is skipped.
func literal(attr *hcl.Attribute) string {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !v.IsKnown() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}
