package domain

import "fmt"

// NoCandidatesError reports that selection produced zero eligible articles.
type NoCandidatesError struct {
	Category Category
	Reason   string
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidates in %s: %s", e.Category, e.Reason)
}

// ConfigurationError reports a missing required setting.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is empty", e.Field)
}

// TransportError wraps network failures and non-success responses from collaborators.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
