package view

import (
	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/layout"
	"github.com/hrygo/notegraph/plugin/render"
)

// OptionsFromProfile applies the layout and render tuning of p to the defaults.
func OptionsFromProfile(p *profile.Profile, surface string) Options {
	cfg := layout.DefaultConfig()
	if p.TickInterval > 0 {
		cfg.TickInterval = p.TickInterval
	}
	cfg.SettleEnergy = p.SettleEnergy

	opts := render.DefaultOptions()
	opts.ShowSharedTagEdges = !p.HideSharedTags
	if p.LabelsAlways {
		opts.Labels = render.LabelsAlways
	}
	return Options{
		Surface:   surface,
		CreatorID: p.CreatorID,
		Layout:    cfg,
		Render:    opts,
	}
}
