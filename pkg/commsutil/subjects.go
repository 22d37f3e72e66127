package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectRouter     = "more0.router.v1"
	SubjectDispatched = "router.dispatched"
)

// BuildDispatchedSubject builds the granular dispatch event subject for a
// message type. Spaces and COMMS wildcards are not valid subject tokens and
// are replaced.
func BuildDispatchedSubject(msgType string) string {
	safe := strings.NewReplacer(" ", "_", "*", "_", ">", "_").Replace(msgType)
	return fmt.Sprintf("%s.%s", SubjectDispatched, safe)
}
