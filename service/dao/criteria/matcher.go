package criteria

import (
	"strings"

	"github.com/viant/stepflow/service/dao"
)

// FilterByStatus reports whether an entity with the supplied status matches
// the optional Status list parameter.
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	switch len(parameters) {
	case 0:
		return true
	case 1:
		if parameters[0].Name == "Status" {
			switch actual := parameters[0].Value.(type) {
			case string:
				return status == actual
			case []string:
				for _, s := range actual {
					if status == s {
						return true
					}
				}
				return false
			}
		}
	}
	return true
}

// FilterByKeyPrefix reports whether a repository key matches the optional
// RunID parameter; async-state keys are runId/asyncId pairs.
func FilterByKeyPrefix(key string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter.Name != "RunID" {
			continue
		}
		runID, ok := parameter.Value.(string)
		if !ok {
			return true
		}
		return key == runID || strings.HasPrefix(key, runID+"/")
	}
	return true
}
