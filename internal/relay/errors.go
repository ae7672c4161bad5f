package relay

import "fmt"

// ValidationError means the relay binary rejected the synthesized
// configuration; the applier has already rolled back.
type ValidationError struct {
	Path   string
	Output string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config validation failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config validation failed for %s: %s", e.Path, e.Output)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ServiceError means the configuration committed but the supervised service
// did not come up afterwards. The new config stays in place; the operator
// has to diagnose the service separately.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s did not become active: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("service %s did not become active", e.Service)
}

func (e *ServiceError) Unwrap() error { return e.Err }
