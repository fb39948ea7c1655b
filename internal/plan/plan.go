// Package plan holds the subscription plan catalog: numeric limits and
// feature flags per plan identifier.
package plan

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Plan identifiers known to the default catalog.
const (
	Free    = "free_user"
	Starter = "starter"
	Pro     = "pro"
)

// Feature names a capability that a plan may enable.
type Feature string

const (
	FeaturePDFExport       Feature = "pdf_export"
	FeatureAnalytics       Feature = "analytics"
	FeatureCustomTemplates Feature = "custom_templates"
)

// Limit is a numeric quota. Unlimited disables the quota.
type Limit int64

// Unlimited marks a quota that never denies.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit never denies.
func (l Limit) IsUnlimited() bool { return l < 0 }

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return strconv.FormatInt(int64(l), 10)
}

// MarshalYAML writes unlimited quotas as the word "unlimited".
func (l Limit) MarshalYAML() (any, error) {
	if l.IsUnlimited() {
		return "unlimited", nil
	}
	return int64(l), nil
}

// UnmarshalYAML accepts an integer, -1 or "unlimited".
func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "unlimited" {
		*l = Unlimited
		return nil
	}
	n, err := strconv.ParseInt(node.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid limit %q: %w", node.Value, err)
	}
	if n < 0 {
		*l = Unlimited
		return nil
	}
	*l = Limit(n)
	return nil
}

// MarshalJSON writes unlimited quotas as -1, matching what clients of the
// billing endpoints expect.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.IsUnlimited() {
		return []byte("-1"), nil
	}
	return []byte(strconv.FormatInt(int64(l), 10)), nil
}

// Features lists the boolean feature flags of a plan.
type Features struct {
	PDFExport       bool `yaml:"pdf_export" json:"pdf_export"`
	Analytics       bool `yaml:"analytics" json:"analytics"`
	CustomTemplates bool `yaml:"custom_templates" json:"custom_templates"`
}

// Has reports whether the named feature is enabled. Unknown names are off.
func (f Features) Has(feature Feature) bool {
	switch feature {
	case FeaturePDFExport:
		return f.PDFExport
	case FeatureAnalytics:
		return f.Analytics
	case FeatureCustomTemplates:
		return f.CustomTemplates
	}
	return false
}

// Plan is one subscription tier.
type Plan struct {
	ID                  string   `yaml:"id" json:"id"`
	Name                string   `yaml:"name" json:"name"`
	MonthlyPrice        int      `yaml:"monthly_price" json:"price"`
	MaxClients          Limit    `yaml:"max_clients" json:"clients"`
	MaxInvoicesPerMonth Limit    `yaml:"max_invoices_per_month" json:"invoices_per_month"`
	Features            Features `yaml:"features" json:"features"`
}

// HasFeature reports whether this plan enables the feature.
func (p Plan) HasFeature(feature Feature) bool {
	return p.Features.Has(feature)
}

// Catalog is the immutable set of plans available to tenants.
// Build it once at startup and pass it to the components that need it.
type Catalog struct {
	plans    map[string]Plan
	order    []string
	fallback string
}

// NewCatalog builds a catalog from plans. fallback is the plan returned for
// unknown identifiers and must be one of plans.
func NewCatalog(fallback string, plans ...Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[string]Plan, len(plans)), fallback: fallback}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan without id")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	if _, ok := c.plans[fallback]; !ok {
		return nil, fmt.Errorf("fallback plan %q not in catalog", fallback)
	}
	return c, nil
}

// Default returns the built-in free_user / starter / pro catalog.
func Default() *Catalog {
	c, err := NewCatalog(Free,
		Plan{
			ID: Free, Name: "Free", MonthlyPrice: 0,
			MaxClients: 5, MaxInvoicesPerMonth: 10,
		},
		Plan{
			ID: Starter, Name: "Starter", MonthlyPrice: 9,
			MaxClients: 50, MaxInvoicesPerMonth: 100,
			Features: Features{PDFExport: true},
		},
		Plan{
			ID: Pro, Name: "Pro", MonthlyPrice: 29,
			MaxClients: Unlimited, MaxInvoicesPerMonth: Unlimited,
			Features: Features{PDFExport: true, Analytics: true, CustomTemplates: true},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	Fallback string `yaml:"fallback"`
	Plans    []Plan `yaml:"plans"`
}

// Load reads a catalog from a YAML file. An empty fallback defaults to
// free_user.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	if f.Fallback == "" {
		f.Fallback = Free
	}
	return NewCatalog(f.Fallback, f.Plans...)
}

// LimitsFor returns the plan for id. Unknown identifiers fall back to the
// most restrictive plan rather than failing.
func (c *Catalog) LimitsFor(id string) Plan {
	if p, ok := c.plans[id]; ok {
		return p
	}
	return c.plans[c.fallback]
}

// Known reports whether id names a plan in the catalog.
func (c *Catalog) Known(id string) bool {
	_, ok := c.plans[id]
	return ok
}

// HasFeature reports whether plan id enables feature.
func (c *Catalog) HasFeature(id string, feature Feature) bool {
	return c.LimitsFor(id).HasFeature(feature)
}

// Plans returns every plan in declaration order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}
