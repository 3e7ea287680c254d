package domain

// ExecutionResult is the outcome of the execution of a PlanNode. Its shape
// mirrors the executed tree: Items holds one result per child of a parallel
// node, and the results up to the first failure for a serial one.
type ExecutionResult struct {
	Success bool
	Data    Payload
	Err     error
	Items   []ExecutionResult
}

func Succeeded(data Payload, items ...ExecutionResult) ExecutionResult {
	return ExecutionResult{Success: true, Data: data, Items: items}
}

func Failed(err error, items ...ExecutionResult) ExecutionResult {
	return ExecutionResult{Err: err, Items: items}
}

// Failures returns the errors of the failed leaves of the result tree.
func (r ExecutionResult) Failures() []error {
	if r.Success {
		return nil
	}
	if len(r.Items) <= 0 {
		if r.Err == nil {
			return nil
		}
		return []error{r.Err}
	}
	errs := make([]error, 0)
	for _, item := range r.Items {
		errs = append(errs, item.Failures()...)
	}
	return errs
}
