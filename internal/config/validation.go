package config

import (
	"path/filepath"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"
)

var routingTypes = normalization.New(map[string]string{
	RoutingMD5:        RoutingMD5,
	RoutingSequential: RoutingSequential,
})

// requiredKeys lists section.key pairs that must be present and non-empty.
var requiredKeys = []struct{ section, key string }{
	{"build", "posts_dir"},
	{"build", "templates_dir"},
	{"build", "output_dir"},
	{"site", "base_url"},
}

// Validate checks the required keys and normalizes the routing mode. It
// returns the first problem found as a fatal config error.
func Validate(cfg *Config) error {
	for _, rk := range requiredKeys {
		if cfg.Sections.Get(rk.section).String(rk.key) == "" {
			return derrors.ConfigError("missing required configuration key").
				WithContext("key", rk.section+"."+rk.key).
				Build()
		}
	}
	// Staging happens in siblings of the output dir, so it needs a parent.
	if out := filepath.Clean(cfg.Build.OutputDir); out == "." || out == filepath.Dir(out) {
		return derrors.ConfigError("output directory must not be the working or root directory").
			WithContext("key", "build.output_dir").
			WithContext("value", cfg.Build.OutputDir).
			Build()
	}
	mode, err := routingTypes.Normalize(cfg.Routing.Type)
	if err != nil {
		return derrors.ConfigError("unknown routing type").
			WithCause(err).
			WithContext("key", "routing.type").
			WithContext("value", cfg.Routing.Type).
			Build()
	}
	cfg.Routing.Type = mode
	return nil
}
