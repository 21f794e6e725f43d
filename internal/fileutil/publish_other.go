//go:build !linux

package fileutil

func renameNoReplace(src, dst string) error {
	return linkPublish(src, dst)
}
