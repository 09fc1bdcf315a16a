package errors_test

import (
	"testing"

	pkgerrors "github.com/joe/pane-mirror/pkg/errors"
)

func TestPatternMatcher_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg      string
		expected pkgerrors.ErrorCategory
	}{
		{"user@host: Permission denied (publickey,password).", pkgerrors.CategoryAuth},
		{"Permission denied, please try again.", pkgerrors.CategoryAuth},
		{"ssh: connect to host example.com port 22: Connection refused", pkgerrors.CategoryConnection},
		{"ssh: Could not resolve hostname nowhere: Name or service not known", pkgerrors.CategoryConnection},
		{"dial tcp 10.0.0.1:22: i/o timeout", pkgerrors.CategoryConnection},
		{"open /etc/shadow: permission denied", pkgerrors.CategoryPermission},
		{"write /mnt/x: no space left on device", pkgerrors.CategoryDiskSpace},
		{"stat /missing: no such file or directory", pkgerrors.CategoryPath},
		{"rmdir /x: directory not empty", pkgerrors.CategoryDelete},
		{"rsync error: some files could not be transferred (code 23)", pkgerrors.CategoryCopy},
		{"something odd happened", pkgerrors.CategoryUnknown},
	}

	matcher := pkgerrors.NewPatternMatcher()

	for _, tt := range tests {
		if got := matcher.Match(tt.msg); got != tt.expected {
			t.Errorf("Match(%q) = %q, want %q", tt.msg, got, tt.expected)
		}
	}
}

func TestPatternMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()

	matcher := pkgerrors.NewPatternMatcher()

	if got := matcher.Match("CONNECTION REFUSED"); got != pkgerrors.CategoryConnection {
		t.Errorf("expected connection category, got %q", got)
	}
}
