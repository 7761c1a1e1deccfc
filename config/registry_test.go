package config

import (
	"context"
	"testing"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/pipeline"
)

type noopBlock struct{ name string }

func (b *noopBlock) Name() string { return b.name }

func (b *noopBlock) Fit(context.Context, *core.Dataset) error { return nil }

func (b *noopBlock) Produce(_ context.Context, ds *core.Dataset) (*core.Dataset, error) {
	return ds, nil
}

func TestRegisterAndFactory(t *testing.T) {
	Register("test_noop", func(_ map[string]any) (pipeline.Block, error) {
		return &noopBlock{name: "test_noop"}, nil
	})

	found := false
	for _, p := range SupportedPrimitives() {
		if p == "test_noop" {
			found = true
		}
	}
	if !found {
		t.Fatalf("test_noop missing from %v", SupportedPrimitives())
	}

	block, err := DefaultFactory().Build("test_noop", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if block.Name() != "test_noop" {
		t.Errorf("Name() = %q", block.Name())
	}

	// nil and empty registrations are ignored
	Register("", nil)
	Register("nil_builder", nil)
	for _, p := range SupportedPrimitives() {
		if p == "" || p == "nil_builder" {
			t.Errorf("invalid registration accepted: %q", p)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	Register("test_known", func(_ map[string]any) (pipeline.Block, error) {
		return &noopBlock{name: "test_known"}, nil
	})

	ok := &pipeline.Template{Blocks: []pipeline.BlockConfig{{Primitive: "test_known"}}}
	if err := ValidateTemplate(ok); err != nil {
		t.Errorf("ValidateTemplate() error = %v", err)
	}

	bad := &pipeline.Template{Blocks: []pipeline.BlockConfig{{Primitive: "test_unknown"}}}
	if err := ValidateTemplate(bad); err == nil {
		t.Error("unknown primitive should fail validation")
	}

	if err := ValidateTemplate(nil); err != nil {
		t.Errorf("ValidateTemplate(nil) error = %v", err)
	}
}
