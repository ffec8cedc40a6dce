package pipeline

import (
	"fmt"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/domain/query"
	"github.com/kailas-cloud/catalog-query/internal/domain/resource/filter"
)

// Plan is a validated run request. Building one performs every configuration
// check that must pass before any remote call.
type Plan struct {
	Action     Action
	Spec       query.Spec
	Predicates filter.Set
	Tests      []string
	Operator   domain.Operator
}

// NewPlan validates spec against the action's requirements and builds the resource filter.
func NewPlan(action Action, spec query.Spec, tests []string, op domain.Operator) (Plan, error) {
	if err := spec.Require(action.RequiredTerms()...); err != nil {
		return Plan{}, fmt.Errorf("action %s: %w", action, err)
	}
	preds, err := spec.ResourcePredicates()
	if err != nil {
		return Plan{}, err
	}
	if op == "" {
		op = domain.OperatorAND
	}
	return Plan{Action: action, Spec: spec, Predicates: preds, Tests: tests, Operator: op}, nil
}

// Organization returns the organization display name, if the spec names one.
func (p Plan) Organization() string {
	name, _ := p.Spec.Organization()
	return name
}
