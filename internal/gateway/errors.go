package gateway

import "fmt"

// AuthenticationError reports a rejected login: bad credentials, a
// disabled account, or an unreachable authority. The session store is
// left untouched when it occurs.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// RegistrationError reports a rejected registration (validation failure
// or duplicate username). The session store is left untouched.
type RegistrationError struct {
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration failed: %s: %v", e.Reason, e.Err)
	}
	return "registration failed: " + e.Reason
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// ResumeError is the diagnostic for a session resume that failed for
// transport or unexpected reasons. The store has already been settled
// to Anonymous when it is returned; the caller may log it but the user
// never sees it.
type ResumeError struct {
	Err error
}

func (e *ResumeError) Error() string { return fmt.Sprintf("session resume failed: %v", e.Err) }

func (e *ResumeError) Unwrap() error { return e.Err }

// InvalidationWarning reports that the remote session invalidation
// during logout failed. The local state has been cleared regardless;
// the warning is non-fatal.
type InvalidationWarning struct {
	Err error
}

func (e *InvalidationWarning) Error() string {
	return fmt.Sprintf("remote session invalidation failed: %v", e.Err)
}

func (e *InvalidationWarning) Unwrap() error { return e.Err }
