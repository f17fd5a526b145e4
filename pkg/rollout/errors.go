// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package rollout

import "fmt"

// UsageError reports bad command line arguments. It aborts the run before
// any side effect.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// PrivilegeError reports that the tool is not running with the privileges
// it needs. It aborts the run before any side effect.
type PrivilegeError struct {
	Msg string
}

func (e *PrivilegeError) Error() string {
	return e.Msg
}

// PrerequisiteError reports a fatal precondition failure, such as an
// unresolvable host or a wrong filesystem type. It aborts the whole run.
type PrerequisiteError struct {
	Reason string
	Err    error
}

func (e *PrerequisiteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// ActionError reports that one host's install or configure step failed.
// Action errors are accumulated and summarized; sibling hosts keep going.
type ActionError struct {
	Action string
	Host   string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Action, e.Host, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
