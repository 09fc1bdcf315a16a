package mirror_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/mirror"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

func newMirrorDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), mirror.CacheDirName, "joe_example_com_22")
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:noinlineerr // test setup
		t.Fatal(err)
	}

	return dir
}

func children(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names
}

func TestSyncDirectory_ScenarioA(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := newMirrorDir(t)
	fs := filesystem.NewRealFileSystem()
	materializer := mirror.NewMaterializer(fs, zerolog.Nop())

	entries := mirror.ParseListing("drwxr-xr-x 2 u g 4096 Jan 1 2024 docs\n-rw-r--r-- 1 u g 128 Jan 1 2024 a.txt\n")

	g.Expect(materializer.SyncDirectory(dir, entries)).To(Succeed())

	g.Expect(filepath.Join(dir, "docs")).To(BeADirectory())
	g.Expect(children(t, filepath.Join(dir, "docs"))).To(BeEmpty())

	info, err := os.Stat(filepath.Join(dir, "a.txt"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(info.Mode().IsRegular()).To(BeTrue())
	g.Expect(info.Size()).To(BeZero())

	table, err := mirror.ReadSizeTable(fs, dir)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(table).To(Equal(mirror.SizeTable{"a.txt": 128}))

	size, err := materializer.SizeOf(filepath.Join(dir, "a.txt"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(size).To(BeEquivalentTo(128))
}

func TestSyncDirectory_IdempotentOnUnchangedListing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := newMirrorDir(t)
	fs := filesystem.NewRealFileSystem()
	materializer := mirror.NewMaterializer(fs, zerolog.Nop())
	entries := mirror.ParseListing("drwxr-xr-x 2 u g 4096 Jan 1 2024 docs\n" +
		"-rw-r--r-- 1 u g 128 Jan 1 2024 a.txt\n-rw-r--r-- 1 u g 9 Feb 2 12:00 b c.txt\n")

	g.Expect(materializer.SyncDirectory(dir, entries)).To(Succeed())

	firstChildren := children(t, dir)
	firstTable, err := mirror.ReadSizeTable(fs, dir)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(materializer.SyncDirectory(dir, entries)).To(Succeed())

	secondTable, err := mirror.ReadSizeTable(fs, dir)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(children(t, dir)).To(Equal(firstChildren))
	g.Expect(secondTable).To(Equal(firstTable))
}

func TestSyncDirectory_ReplacesStaleEntriesAndKeepsSidecar(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := newMirrorDir(t)
	fs := filesystem.NewRealFileSystem()
	g.Expect(os.WriteFile(filepath.Join(dir, mirror.SidecarName), []byte("Host: h\n"), 0o600)).To(Succeed())
	g.Expect(os.MkdirAll(filepath.Join(dir, "stale", "deep"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "old.txt"), nil, 0o600)).To(Succeed())
	g.Expect(mirror.WriteSizeTable(fs, dir, mirror.SizeTable{"old.txt": 5})).To(Succeed())

	materializer := mirror.NewMaterializer(fs, zerolog.Nop())
	g.Expect(materializer.SyncDirectory(dir, []mirror.Entry{{Name: "new.bin", Size: 7}})).To(Succeed())

	g.Expect(children(t, dir)).To(Equal([]string{mirror.SidecarName, mirror.SizeTableName, "new.bin"}))
	g.Expect(mirror.ReadSizeTable(fs, dir)).To(Equal(mirror.SizeTable{"new.bin": 7}))
	g.Expect(os.ReadFile(filepath.Join(dir, mirror.SidecarName))).To(Equal([]byte("Host: h\n")))

	size, err := materializer.SizeOf(filepath.Join(dir, "old.txt"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(size).To(BeZero())
}

func TestSyncDirectory_LastEntryWins(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := newMirrorDir(t)
	fs := filesystem.NewRealFileSystem()
	materializer := mirror.NewMaterializer(fs, zerolog.Nop())

	g.Expect(materializer.SyncDirectory(dir, []mirror.Entry{
		{Name: "x", Size: 10},
		{Name: "x", IsDir: true},
		{Name: "y", IsDir: true},
		{Name: "y", Size: 3},
	})).To(Succeed())

	g.Expect(filepath.Join(dir, "x")).To(BeADirectory())
	g.Expect(filepath.Join(dir, "y")).To(BeARegularFile())
	g.Expect(mirror.ReadSizeTable(fs, dir)).To(Equal(mirror.SizeTable{"y": 3}))
}

func TestSyncDirectory_RefusesPlainLocalDirectory(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "precious.txt"), []byte("keep"), 0o600)).To(Succeed())

	err := mirror.NewMaterializer(filesystem.NewRealFileSystem(), zerolog.Nop()).SyncDirectory(dir, nil)

	var resolveErr *pmerrors.PathResolutionError
	g.Expect(errors.As(err, &resolveErr)).To(BeTrue())
	g.Expect(filepath.Join(dir, "precious.txt")).To(BeAnExistingFile())
}

func TestSizeOf_PlainLocalFileUsesAttributes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "f")
	g.Expect(os.WriteFile(path, make([]byte, 42), 0o600)).To(Succeed())

	size, err := mirror.NewMaterializer(filesystem.NewRealFileSystem(), zerolog.Nop()).SizeOf(path)

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(size).To(BeEquivalentTo(42))
}
