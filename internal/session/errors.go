package session

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the document ID is not in the user's set.
var ErrNotFound = errors.New("document not found")

// ErrNoBlobPath indicates the document has no stored blob to act on.
var ErrNoBlobPath = errors.New("document has no blob path")

// Op names the remote operation that failed.
type Op string

const (
	OpList       Op = "list"
	OpUploadBlob Op = "upload_blob"
	OpRegister   Op = "register"
	OpChat       Op = "chat"
	OpDelete     Op = "delete"
	OpSignedURL  Op = "signed_url"
)

// RemoteOpError wraps a failed call to a remote collaborator. Detail carries
// a human-readable message, backend detail strings verbatim.
type RemoteOpError struct {
	Op     Op
	Detail string
	Err    error
}

func (e *RemoteOpError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *RemoteOpError) Unwrap() error {
	return e.Err
}

func remoteErr(op Op, detail string, err error) *RemoteOpError {
	return &RemoteOpError{Op: op, Detail: detail, Err: err}
}
