package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rushteam/tunekit/core"
)

// configRecorder keeps the config it was built with so merge order can be checked.
type configRecorder struct {
	staticBlock
	config map[string]any
}

func recorderFactory() *BlockFactory {
	f := NewBlockFactory()
	builder := func(name string) BlockBuilder {
		return func(cfg map[string]any) (Block, error) {
			return &configRecorder{staticBlock: staticBlock{name: name}, config: cfg}, nil
		}
	}
	f.Register("imputer", builder("imputer"))
	f.Register("scaler", builder("scaler"))
	return f
}

const templateYAML = `name: demo
blocks:
  - primitive: imputer
    config:
      fill_value: 7
  - primitive: scaler
init_params:
  imputer#1:
    fill_value: 9
`

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(templateYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if tpl.Name != "demo" || len(tpl.Blocks) != 2 {
		t.Fatalf("parsed template = %+v", tpl)
	}
	if tpl.Blocks[0].Primitive != "imputer" || tpl.Blocks[1].Primitive != "scaler" {
		t.Errorf("blocks = %+v", tpl.Blocks)
	}
}

func TestTemplate_ID(t *testing.T) {
	named := &Template{Name: "demo"}
	if named.ID() != "demo" {
		t.Errorf("named ID = %q, want demo", named.ID())
	}

	anon := &Template{Blocks: []BlockConfig{{Primitive: "imputer"}}}
	id1 := anon.ID()
	id2 := anon.ID()
	if len(id1) != 32 || id1 != id2 {
		t.Errorf("anonymous ID unstable: %q vs %q", id1, id2)
	}
}

func TestTemplate_ApplyInitParams(t *testing.T) {
	tpl := &Template{
		Name:   "demo",
		Blocks: []BlockConfig{{Primitive: "imputer"}},
		InitParams: map[string]map[string]any{
			"imputer": {"fill_value": 1, "keep": true},
		},
	}
	// bare primitive names are normalized to the #1 instance, values merge over
	tpl.ApplyInitParams(map[string]map[string]any{
		"imputer": {"fill_value": 2},
	})

	want := map[string]any{"fill_value": 2, "keep": true}
	if got := tpl.InitParams["imputer#1"]; !reflect.DeepEqual(got, want) {
		t.Errorf("InitParams[imputer#1] = %v, want %v", got, want)
	}
	if _, ok := tpl.InitParams["imputer"]; ok {
		t.Error("bare key should be gone after normalization")
	}
}

func TestTemplate_BuildMergesConfig(t *testing.T) {
	tpl := &Template{
		Name: "demo",
		Blocks: []BlockConfig{
			{Primitive: "imputer", Config: map[string]any{"fill_value": 1, "base": "x"}},
			{Primitive: "imputer"},
		},
		InitParams: map[string]map[string]any{
			"imputer":   {"fill_value": 2}, // bare: only instance #1
			"imputer#2": {"fill_value": 3},
		},
	}

	p, err := tpl.Build(recorderFactory())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	first := p.Steps[0].Block.(*configRecorder)
	second := p.Steps[1].Block.(*configRecorder)

	if first.config["fill_value"] != 2 || first.config["base"] != "x" {
		t.Errorf("first config = %v", first.config)
	}
	if second.config["fill_value"] != 3 {
		t.Errorf("second config = %v", second.config)
	}
}

func TestTemplate_CloneIsolation(t *testing.T) {
	tpl := &Template{
		Name:       "demo",
		Blocks:     []BlockConfig{{Primitive: "imputer"}},
		InitParams: map[string]map[string]any{"imputer": {"fill_value": 1}},
	}
	clone := tpl.Clone()
	clone.ApplyInitParams(map[string]map[string]any{"imputer": {"fill_value": 99}})

	if got := tpl.InitParams["imputer"]["fill_value"]; got != 1 {
		t.Errorf("clone mutation leaked into original: %v", got)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"alpha.yaml":   templateYAML,
		"beta.json":    `{"name": "beta", "blocks": [{"primitive": "scaler"}]}`,
		"ignored.txt":  "not a template",
		"alpha_v2.yml": templateYAML,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	names, err := Discover(dir, "")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{"alpha", "alpha_v2", "beta"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Discover() = %v, want %v", names, want)
	}

	filtered, err := Discover(dir, "alpha")
	if err != nil {
		t.Fatalf("Discover(alpha) error = %v", err)
	}
	if !reflect.DeepEqual(filtered, []string{"alpha", "alpha_v2"}) {
		t.Errorf("Discover(alpha) = %v", filtered)
	}

	tpl, err := LoadNamed(dir, "beta")
	if err != nil {
		t.Fatalf("LoadNamed() error = %v", err)
	}
	if tpl.Name != "beta" {
		t.Errorf("loaded template = %+v", tpl)
	}

	if _, err := LoadNamed(dir, "missing"); !core.IsNotFound(err) {
		t.Errorf("LoadNamed(missing): error = %v, want NOT_FOUND", err)
	}
}
