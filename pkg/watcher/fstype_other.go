//go:build !linux

package watcher

// DetectFilesystemType has no reliable probe outside Linux; fsnotify is
// assumed to work and polling stays an explicit opt-in.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
