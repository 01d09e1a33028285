package scratch

import (
	"context"
	"maps"
)

var (
	TemplateAuthKey = "is_authenticated"
	TemplatePathKey = "current_path"
)

// TemplateHelpers returns the auth state found in ctx as template globals.
//
// In templates, you can then use:
//
//	{% if is_authenticated %}
//	{% if current_path == "/settings" %}
func TemplateHelpers(ctx context.Context) map[string]any {
	return map[string]any{
		TemplateAuthKey: IsAuthenticated(ctx),
		TemplatePathKey: CurrentPath(ctx),
	}
}

// MergeTemplateData layers the request view data and then data over the
// template helpers. Keys in data win.
func MergeTemplateData(ctx context.Context, data map[string]any) map[string]any {
	out := TemplateHelpers(ctx)
	maps.Copy(out, ViewData(ctx))
	maps.Copy(out, data)
	return out
}
