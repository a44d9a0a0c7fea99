package ephemeral

import (
	"strconv"
	"strings"
)

// batchCommandName is the submission command step commands are expected
// to invoke; only commands built around it can be rewritten to route
// through an ephemeral service.
const batchCommandName = "sbatch"

// rewriteForUse inserts flags immediately after the first occurrence of
// the batch command token in command, mirroring the reference
// implementation's in-place rewrite of a step's sbatch invocation. If the
// batch command is not found, command is returned unchanged.
func rewriteForUse(command string, flags ...string) string {
	if len(flags) == 0 {
		return command
	}
	idx := strings.Index(command, batchCommandName)
	if idx < 0 {
		return command
	}
	insertAt := idx + len(batchCommandName)
	return command[:insertAt] + " " + strings.Join(flags, " ") + command[insertAt:]
}

func dependencyFlag(startJobID int64) string {
	if startJobID <= 0 {
		return ""
	}
	return "--dependency=afterany:" + strconv.FormatInt(startJobID, 10)
}
