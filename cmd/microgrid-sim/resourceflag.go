package main

import (
	"fmt"
	"strings"

	"github.com/devskill-org/microgrid-sim/webapi"
)

// resourceFlags collects repeated -resource=kind:key:path flags into a
// slice of ResourceRequest entries.
type resourceFlags []webapi.ResourceRequest

func (r *resourceFlags) String() string {
	parts := make([]string, len(*r))
	for i, res := range *r {
		parts[i] = fmt.Sprintf("%s:%s:%s", res.Kind, res.Key, res.Path)
	}
	return strings.Join(parts, ",")
}

func (r *resourceFlags) Set(value string) error {
	fields := strings.SplitN(value, ":", 3)
	if len(fields) != 3 {
		return fmt.Errorf("resource flag %q must be in kind:key:path form", value)
	}
	*r = append(*r, webapi.ResourceRequest{Kind: fields[0], Key: fields[1], Path: fields[2]})
	return nil
}
