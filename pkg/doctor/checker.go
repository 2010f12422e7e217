package doctor

import (
	"context"
	"runtime"
	"sync"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

// Checker provides dependency checking functionality.
type Checker struct {
	executor runner.Executor
	platform string
	uvPath   string // Project-local uv binary
}

// NewChecker creates a new Checker with the real command executor.
func NewChecker() *Checker {
	return NewCheckerWithExecutor(&runner.RealExecutor{})
}

// NewCheckerWithExecutor creates a new Checker with a custom executor (for testing).
func NewCheckerWithExecutor(exec runner.Executor) *Checker {
	return &Checker{
		executor: exec,
		platform: runtime.GOOS,
	}
}

// SetUVPath sets the uv binary the python group checks.
func (c *Checker) SetUVPath(path string) {
	c.uvPath = path
}

// CheckAll runs all checks in order and returns groups with results.
func (c *Checker) CheckAll(ctx context.Context) []CheckGroup {
	var result []CheckGroup
	for _, groupID := range GetAllGroupIDs() {
		result = append(result, c.CheckGroup(ctx, groupID))
	}
	return result
}

// CheckAllAsync runs all groups concurrently. Results keep report order.
func (c *Checker) CheckAllAsync(ctx context.Context) []CheckGroup {
	groups := GetGroups()
	result := make([]CheckGroup, len(groups))
	var wg sync.WaitGroup

	for i, group := range groups {
		wg.Add(1)
		go func(idx int, g CheckGroup) {
			defer wg.Done()
			result[idx] = c.CheckGroup(ctx, g.ID)
		}(i, group)
	}

	wg.Wait()
	return result
}

// CheckGroup runs all checks for a specific group. In an AnyOf group a
// missing tool is downgraded to a warning once another one passes.
func (c *Checker) CheckGroup(ctx context.Context, groupID string) CheckGroup {
	def, ok := GetGroupDefinition(groupID)
	if !ok {
		return CheckGroup{
			ID:   groupID,
			Name: "Unknown",
		}
	}

	group := CheckGroup{
		ID:          groupID,
		Name:        def.Name,
		Description: def.Description,
		AnyOf:       def.AnyOf,
	}

	anyOK := false
	for _, checkID := range def.CheckIDs {
		check := c.runCheck(ctx, checkID)
		if check.Status == StatusOK {
			anyOK = true
		}
		group.Checks = append(group.Checks, check)
	}

	if group.AnyOf && anyOK {
		for i := range group.Checks {
			if group.Checks[i].Status == StatusMissing {
				group.Checks[i].Status = StatusWarning
				group.Checks[i].Message = "not installed (optional)"
			}
		}
	}

	return group
}

// runCheck runs a specific check by ID.
func (c *Checker) runCheck(ctx context.Context, checkID string) Check {
	switch checkID {
	case IDGit:
		return CheckGit(ctx, c.executor, c.platform)
	case IDClang:
		return CheckClang(ctx, c.executor, c.platform)
	case IDCurl:
		return CheckCurl(ctx, c.executor, c.platform)
	case IDWget:
		return CheckWget(ctx, c.executor, c.platform)
	case IDOpam:
		return CheckOpam(ctx, c.executor, c.platform)
	case IDUV:
		return CheckUV(ctx, c.executor, c.uvPath)
	default:
		return Check{
			ID:      checkID,
			Name:    checkID,
			Status:  StatusError,
			Message: "unknown check",
		}
	}
}

// GetCheck runs a single check by ID.
func (c *Checker) GetCheck(ctx context.Context, checkID string) Check {
	return c.runCheck(ctx, checkID)
}

// Summary represents an overall health summary.
type Summary struct {
	Total    int
	OK       int
	Missing  int
	Warnings int
	Errors   int
}

// GetSummary returns a summary of check results.
func (c *Checker) GetSummary(groups []CheckGroup) Summary {
	var summary Summary

	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusWarning:
				summary.Warnings++
			case StatusError:
				summary.Errors++
			}
		}
	}

	return summary
}

// HasIssues returns true if any checks have issues.
func (c *Checker) HasIssues(groups []CheckGroup) bool {
	summary := c.GetSummary(groups)
	return summary.Missing > 0 || summary.Errors > 0
}

// Notes returns the minimum-version notes, in report order.
func Notes(groups []CheckGroup) []string {
	var notes []string
	for _, group := range groups {
		for _, check := range group.Checks {
			if check.Note != "" {
				notes = append(notes, check.Note)
			}
		}
	}
	return notes
}
