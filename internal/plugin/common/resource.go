package common

import (
	"fmt"
	"strings"

	"antware.xyz/authgate/internal/engine"
)

// ParseResource parses a resource expression in the format:
// resource[.group][/subresource]
// Examples:
//
//	pods
//	pods/log
//	deployments.apps
//	deployments.apps/status
func ParseResource(expr string) (engine.ResourceDescriptor, error) {
	if expr == "" {
		return engine.ResourceDescriptor{}, fmt.Errorf("empty resource expression")
	}

	res := expr
	sub := ""
	group := ""

	// Handle subresource (pods/log)
	if strings.Contains(res, "/") {
		tokens := strings.SplitN(res, "/", 2)
		res = tokens[0]
		sub = tokens[1]
	}

	// Handle API group (deployments.apps)
	if strings.Contains(res, ".") {
		tokens := strings.SplitN(res, ".", 2)
		res = tokens[0]
		group = tokens[1]
	}

	if res == "" {
		return engine.ResourceDescriptor{}, fmt.Errorf("invalid resource expression: %s", expr)
	}

	return engine.ResourceDescriptor{
		APIGroup:    group,
		Resource:    res,
		Subresource: sub,
	}, nil
}
