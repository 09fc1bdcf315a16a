package filesystem_test

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/joe/pane-mirror/pkg/filesystem"
)

var _ filesystem.FileSystem = (*filesystem.MockFileSystem)(nil)

func TestMockFileSystem_WriteReadAndList(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mock := filesystem.NewMockFileSystem()

	g.Expect(mock.WriteFile("/a/b.txt", []byte("x"), 0o600)).To(MatchError(fs.ErrNotExist))
	g.Expect(mock.MkdirAll("/a/sub", 0o755)).To(Succeed())
	g.Expect(mock.WriteFile("/a/b.txt", []byte("hello"), 0o600)).To(Succeed())

	data, err := mock.ReadFile("/a/b.txt")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(data)).To(Equal("hello"))

	entries, err := mock.ReadDir("/a")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entries).To(HaveLen(2))
	g.Expect(entries[0].Name()).To(Equal("b.txt"))
	g.Expect(entries[1].IsDir()).To(BeTrue())

	info, err := mock.Stat("/a/b.txt")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(info.Size()).To(Equal(int64(5)))
}

func TestMockFileSystem_CreateOpenAndScan(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mock := filesystem.NewMockFileSystem()
	mock.AddFile("/root/x/y.txt", []byte("yy"), time.Unix(100, 0))

	file, err := mock.Create("/root/z.txt")
	g.Expect(err).ToNot(HaveOccurred())
	_, err = file.Write([]byte("zzz"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(file.Close()).To(Succeed())

	reader, err := mock.Open("/root/z.txt")
	g.Expect(err).ToNot(HaveOccurred())
	content, err := io.ReadAll(reader)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(content)).To(Equal("zzz"))

	scanner := mock.Scan("/root")

	var paths []string

	for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
		paths = append(paths, info.RelativePath)
	}

	g.Expect(scanner.Err()).ToNot(HaveOccurred())
	g.Expect(paths).To(Equal([]string{"x", "x/y.txt", "z.txt"}))
}

func TestMockFileSystem_RenameAndRemove(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mock := filesystem.NewMockFileSystem()
	mock.AddFile("/src/dir/f.txt", []byte("f"), time.Time{})
	g.Expect(mock.MkdirAll("/dst", 0o755)).To(Succeed())

	g.Expect(mock.Rename("/src/dir", "/dst/dir")).To(Succeed())
	g.Expect(mock.Exists("/dst/dir/f.txt")).To(BeTrue())
	g.Expect(mock.Exists("/src/dir")).To(BeFalse())

	g.Expect(mock.Remove("/dst/dir")).ToNot(Succeed())
	g.Expect(mock.RemoveAll("/dst/dir")).To(Succeed())
	g.Expect(mock.ListFiles()).To(Equal([]string{"/", "/dst", "/src"}))
	g.Expect(mock.RemoveAll("/missing")).To(Succeed())
}

func TestMockFileSystem_FailOn(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	boom := errors.New("disk on fire")
	mock := filesystem.NewMockFileSystem()
	mock.AddFile("/f", []byte("1"), time.Time{})

	mock.FailOn("/f", boom)
	_, err := mock.ReadFile("/f")
	g.Expect(err).To(MatchError(boom))

	var pathErr *fs.PathError
	g.Expect(errors.As(err, &pathErr)).To(BeTrue())
	g.Expect(pathErr.Path).To(Equal("/f"))

	mock.FailOn("/f", nil)
	g.Expect(mock.ReadFile("/f")).To(Equal([]byte("1")))
}
