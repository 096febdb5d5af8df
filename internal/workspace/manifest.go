package workspace

import (
	"fmt"

	"github.com/signalpilot-labs/sp-cli/internal/uv"
)

// Manifest is the tiered package list installed into the environment.
type Manifest struct {
	Core    []string
	Extras  []string
	Product []string
}

// DefaultManifest returns the standard tiers with library as product.
func DefaultManifest(library string) Manifest {
	return Manifest{
		Core:    []string{"jupyterlab", "ipykernel", "pandas", "numpy"},
		Extras:  []string{"matplotlib", "seaborn", "scikit-learn"},
		Product: []string{library},
	}
}

// Packages returns core, then extras when selected, then product.
func (m Manifest) Packages(extras bool) []string {
	out := make([]string, 0, len(m.Core)+len(m.Extras)+len(m.Product))
	out = append(out, m.Core...)
	if extras {
		out = append(out, m.Extras...)
	}
	return append(out, m.Product...)
}

// Validate checks that no package appears in two tiers.
func (m Manifest) Validate() error {
	seen := make(map[string]string)
	tiers := []struct {
		name string
		pkgs []string
	}{{"core", m.Core}, {"extras", m.Extras}, {"product", m.Product}}
	for _, tier := range tiers {
		for _, p := range tier.pkgs {
			if p == "" {
				return fmt.Errorf("empty package name in %s tier", tier.name)
			}
			key := uv.NormalizeName(p)
			if other, ok := seen[key]; ok {
				return fmt.Errorf("package %q listed in both %s and %s tiers", p, other, tier.name)
			}
			seen[key] = tier.name
		}
	}
	return nil
}
