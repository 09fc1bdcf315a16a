package errors_test

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	pkgerrors "github.com/joe/pane-mirror/pkg/errors"
)

func TestPartialBatchError_UnwrapsEveryItem(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	errA := errors.New("boom")
	batchErr := &pkgerrors.PartialBatchError{
		Total: 3,
		Failures: []pkgerrors.ItemFailure{
			{Name: "a.txt", Err: errA},
			{Name: "b.txt", Err: pkgerrors.ErrDeleteFailed},
		},
	}

	g.Expect(batchErr.Error()).To(Equal("2 of 3 items failed: a.txt: boom; b.txt: delete failed after successful copy"))
	g.Expect(errors.Is(batchErr, errA)).To(BeTrue())
	g.Expect(errors.Is(batchErr, pkgerrors.ErrDeleteFailed)).To(BeTrue())
}

func TestListingError_MessageIncludesFirstOutputLine(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	err := &pkgerrors.ListingError{
		Host:       "example.com",
		RemotePath: "/srv",
		Status:     2,
		Output:     "ls: cannot access '/srv': No such file or directory\nmore",
	}

	g.Expect(err.Error()).To(Equal("list example.com:/srv (exit 2): ls: cannot access '/srv': No such file or directory"))
	g.Expect(err.FailedPath()).To(Equal("/srv"))
}

func TestPathResolutionError_WrapsCause(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	err := &pkgerrors.PathResolutionError{Path: "/tmp/x", Err: pkgerrors.ErrNoMirrorRoot}

	g.Expect(errors.Is(err, pkgerrors.ErrNoMirrorRoot)).To(BeTrue())
	g.Expect(err.Error()).To(Equal("resolve /tmp/x: no mirror root found"))
}
