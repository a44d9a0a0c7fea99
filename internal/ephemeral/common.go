package ephemeral

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"syscall"
)

// sizePattern matches the storage-size formats the reference cluster
// tooling accepts: a bare number (an integer, optionally with a decimal
// fraction) with an optional byte-unit suffix (K/M/G/T/P, optionally binary
// "i", optionally trailing "B").
var sizePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[KMGTP]?i?B?$`)

// checkAbsPathName reports whether directory looks like an absolute path
// name, without touching the filesystem.
func checkAbsPathName(directory string) string {
	if len(directory) <= 1 {
		return "is not a correct directory name"
	}
	if directory[0] != '/' {
		return "is not an absolute pathname"
	}
	return ""
}

// checkAbsPathDir additionally requires that directory exists, is a
// directory, and is readable/writable/executable by this process.
func checkAbsPathDir(directory string) string {
	if msg := checkAbsPathName(directory); msg != "" {
		return msg
	}
	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return "is not a directory or does not exist"
	}
	f, err := os.Open(directory)
	if err != nil {
		return "cannot be accessed"
	}
	f.Close()
	// 0x7 is R_OK|W_OK|X_OK.
	if err := syscall.Access(directory, 0x7); err != nil {
		return "cannot be accessed"
	}
	return ""
}

// checkSize validates a storage-size string like "10G", "512Mi", "1024".
func checkSize(size string) string {
	if strings.Contains(size, " ") || !sizePattern.MatchString(size) {
		return "is not a correct size format"
	}
	return ""
}

// hestiaPrefix marks a namespace/destination path as resolved through the
// Hestia object-store backend rather than a plain file path.
const hestiaPrefix = "HESTIA@"

// stripHestiaPrefix reports whether s carries the Hestia backend prefix
// and returns the path with it removed.
func stripHestiaPrefix(s string) (isHestia bool, path string) {
	if strings.HasPrefix(s, hestiaPrefix) {
		return true, strings.TrimPrefix(s, hestiaPrefix)
	}
	return false, s
}

func distinctValues(label string, values []string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			return fmt.Errorf("all the %s should be distinct", label)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func datanodesOK(attrs Attrs, publicType string) string {
	v, ok := attrs["datanodes"]
	if !ok || v == "1" {
		return ""
	}
	return fmt.Sprintf("number of datanodes can only be 1 for %s services", publicType)
}
