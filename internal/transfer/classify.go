package transfer

// Kind is one of the eight directional operations.
type Kind int

// Kind values.
const (
	LocalFile Kind = iota
	LocalDirectory
	UploadFile
	UploadDirectory
	DownloadFile
	DownloadDirectory
	RemoteToRemoteFile
	RemoteToRemoteDirectory
)

var kindNames = [...]string{
	LocalFile:               "local file copy",
	LocalDirectory:          "local directory copy",
	UploadFile:              "file upload",
	UploadDirectory:         "directory upload",
	DownloadFile:            "file download",
	DownloadDirectory:       "directory download",
	RemoteToRemoteFile:      "remote-to-remote file",
	RemoteToRemoteDirectory: "remote-to-remote directory",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}

	return kindNames[k]
}

// SourceRemote reports whether the source of k lives behind a mirror.
func (k Kind) SourceRemote() bool {
	return k == DownloadFile || k == DownloadDirectory || k == RemoteToRemoteFile || k == RemoteToRemoteDirectory
}

// DestRemote reports whether the destination of k lives behind a mirror.
func (k Kind) DestRemote() bool {
	return k == UploadFile || k == UploadDirectory || k == RemoteToRemoteFile || k == RemoteToRemoteDirectory
}

// IsDirectory reports whether k moves a whole tree.
func (k Kind) IsDirectory() bool {
	return k%2 == 1
}

// Classify picks the operation for an item from the locality of its source and destination
// and its type. The pane an item came from plays no part.
func Classify(sourceRemote, destRemote, isDir bool) Kind {
	var kind Kind

	switch {
	case !sourceRemote && !destRemote:
		kind = LocalFile
	case !sourceRemote && destRemote:
		kind = UploadFile
	case sourceRemote && !destRemote:
		kind = DownloadFile
	default:
		kind = RemoteToRemoteFile
	}

	if isDir {
		kind++
	}

	return kind
}
