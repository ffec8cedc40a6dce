package pipeline

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/domain/query"
)

// Action selects which stages a run executes.
type Action string

// Known actions.
const (
	ActionDatasetList         Action = "dataset_list"
	ActionDatasetListByFilter Action = "dataset_list_by_filter"
	ActionResourceCCCheck     Action = "resource_cc_check"
)

// Actions returns every known action.
func Actions() []Action {
	return []Action{ActionDatasetList, ActionDatasetListByFilter, ActionResourceCCCheck}
}

// ParseAction resolves an action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, string(a))
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", domain.ErrUnknownAction, s, strings.Join(names, ", "))
}

// RequiredTerms returns the query keys the action cannot run without.
func (a Action) RequiredTerms() []string {
	switch a {
	case ActionDatasetList, ActionResourceCCCheck:
		return []string{query.KeyOrganization}
	default:
		return nil
	}
}

// RunsChecks reports whether the action invokes the compliance checker.
func (a Action) RunsChecks() bool { return a == ActionResourceCCCheck }

func (a Action) String() string { return string(a) }
