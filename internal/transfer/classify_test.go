package transfer_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/joe/pane-mirror/internal/transfer"
)

func TestClassify_AllEightOperations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sourceRemote, destRemote, isDir bool
		expected                        transfer.Kind
	}{
		{false, false, false, transfer.LocalFile},
		{false, false, true, transfer.LocalDirectory},
		{false, true, false, transfer.UploadFile},
		{false, true, true, transfer.UploadDirectory},
		{true, false, false, transfer.DownloadFile},
		{true, false, true, transfer.DownloadDirectory},
		{true, true, false, transfer.RemoteToRemoteFile},
		{true, true, true, transfer.RemoteToRemoteDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			kind := transfer.Classify(tt.sourceRemote, tt.destRemote, tt.isDir)

			g.Expect(kind).To(Equal(tt.expected))
			g.Expect(kind.SourceRemote()).To(Equal(tt.sourceRemote))
			g.Expect(kind.DestRemote()).To(Equal(tt.destRemote))
			g.Expect(kind.IsDirectory()).To(Equal(tt.isDir))
		})
	}
}

func TestItemState(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(transfer.DeleteFailed.String()).To(Equal("delete-failed"))
	g.Expect(transfer.ItemState(99).String()).To(Equal("unknown"))

	g.Expect(transfer.DeleteFailed.Succeeded()).To(BeTrue())
	g.Expect(transfer.Deleted.Succeeded()).To(BeTrue())
	g.Expect(transfer.Skipped.Succeeded()).To(BeFalse())

	g.Expect(transfer.Skipped.Terminal()).To(BeTrue())
	g.Expect(transfer.PendingDeletion.Terminal()).To(BeFalse())
}
