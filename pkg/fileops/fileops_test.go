package fileops_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/joe/pane-mirror/pkg/fileops"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

func TestCopyFile_CopiesContentAndReportsProgress(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "out", "dst.bin")
	content := make([]byte, fileops.BufferSize*2+10)

	for i := range content {
		content[i] = byte(i)
	}

	g.Expect(os.WriteFile(src, content, 0o600)).To(Succeed())

	var reports []int64

	ops := fileops.NewRealFileOps()
	written, err := ops.CopyFile(src, dst, func(done, total int64, current string) {
		g.Expect(total).To(BeEquivalentTo(len(content)))
		g.Expect(current).To(Equal(src))

		reports = append(reports, done)
	})

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(written).To(BeEquivalentTo(len(content)))
	g.Expect(os.ReadFile(dst)).To(Equal(content))
	g.Expect(reports[0]).To(BeZero())
	g.Expect(reports[len(reports)-1]).To(BeEquivalentTo(len(content)))

	for i := 1; i < len(reports); i++ {
		g.Expect(reports[i]).To(BeNumerically(">=", reports[i-1]))
	}
}

func TestCopyFile_RefusesSamePath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "a")
	g.Expect(os.WriteFile(path, []byte("keep"), 0o600)).To(Succeed())

	_, err := fileops.NewRealFileOps().CopyFile(path, path, nil)

	g.Expect(errors.Is(err, fileops.ErrSameFile)).To(BeTrue())
	g.Expect(os.ReadFile(path)).To(Equal([]byte("keep")))
}

func TestCopyTree_CopiesNestedDirectories(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	g.Expect(os.MkdirAll(filepath.Join(src, "nested", "empty"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0o600)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("bbbbb"), 0o600)).To(Succeed())

	var last, lastTotal int64

	dst := filepath.Join(dir, "dst")
	written, err := fileops.NewRealFileOps().CopyTree(src, dst, func(done, total int64, _ string) {
		g.Expect(done).To(BeNumerically(">=", last))

		last, lastTotal = done, total
	})

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(written).To(BeEquivalentTo(8))
	g.Expect(last).To(BeEquivalentTo(8))
	g.Expect(lastTotal).To(BeEquivalentTo(8))
	g.Expect(os.ReadFile(filepath.Join(dst, "nested", "b.txt"))).To(Equal([]byte("bbbbb")))
	g.Expect(filepath.Join(dst, "nested", "empty")).To(BeADirectory())
}

func TestCopyTree_RefusesCopyIntoItself(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()

	_, err := fileops.NewRealFileOps().CopyTree(src, filepath.Join(src, "inner"), nil)

	g.Expect(errors.Is(err, fileops.ErrSameFile)).To(BeTrue())
}

func TestSize_FileAndDirectory(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.MkdirAll(filepath.Join(dir, "d"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "d", "x"), make([]byte, 100), 0o600)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "d", "y"), make([]byte, 23), 0o600)).To(Succeed())

	ops := fileops.NewFileOps(filesystem.NewRealFileSystem())

	size, isDir, err := ops.Size(filepath.Join(dir, "d"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(isDir).To(BeTrue())
	g.Expect(size).To(BeEquivalentTo(123))

	size, isDir, err = ops.Size(filepath.Join(dir, "d", "x"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(isDir).To(BeFalse())
	g.Expect(size).To(BeEquivalentTo(100))
}

func TestRemove_FileAndTree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.MkdirAll(filepath.Join(dir, "d", "e"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "f"), nil, 0o600)).To(Succeed())

	ops := fileops.NewRealFileOps()

	g.Expect(ops.Remove(filepath.Join(dir, "f"), false)).To(Succeed())
	g.Expect(ops.Remove(filepath.Join(dir, "d"), true)).To(Succeed())
	g.Expect(filepath.Join(dir, "f")).ToNot(BeAnExistingFile())
	g.Expect(filepath.Join(dir, "d")).ToNot(BeAnExistingFile())
}
