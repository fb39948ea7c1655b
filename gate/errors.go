package gate

import (
	"errors"
	"strings"

	"github.com/diewo77/facturo/i18n"
)

// ErrUnauthorized is returned when there is no subject to check.
var ErrUnauthorized = errors.New("unauthorized")

// FeatureDeniedError reports a feature missing from the subject's plan.
type FeatureDeniedError struct {
	Feature Feature
	Plan    string
}

func (e *FeatureDeniedError) Error() string { return e.Message(i18n.DefaultLang) }

// Message renders the denial in lang.
func (e *FeatureDeniedError) Message(lang string) string {
	return i18n.Tf(lang, "feature.denied", e.Feature, e.Plan)
}

// PlanDeniedError reports a plan outside the allowed set.
type PlanDeniedError struct {
	Allowed []string
	Plan    string
}

func (e *PlanDeniedError) Error() string { return e.Message(i18n.DefaultLang) }

func (e *PlanDeniedError) Message(lang string) string {
	return i18n.Tf(lang, "plan.denied", strings.Join(e.Allowed, ", "), e.Plan)
}
