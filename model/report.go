package model

// Report aggregates test run verdicts for a whole suite.
type Report struct {
	Passed int
	Failed int
	// Names of failed test cases in execution order
	Failures []string
}

// Add folds a single run into the report.
func (r *Report) Add(run TestRun) {
	if run.Passed() {
		r.Passed++
		return
	}
	r.Failed++
	r.Failures = append(r.Failures, run.Case.Name)
}

// Total is the number of executed test cases.
func (r *Report) Total() int {
	return r.Passed + r.Failed
}

// OK reports whether every executed test case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}
