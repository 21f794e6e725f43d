package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// ProjectXML is a trimmed Premiere Pro project document whose Project record
// sits at version 21.
const ProjectXML = `<?xml version="1.0" encoding="UTF-8" ?>
<PremiereData Version="3">
	<Project ObjectRef="1"/>
	<Project ObjectID="123" ClassID="62ad66dd-0dcd-42da-a660-6d8fbde94876" Version="21">
		<Node Version="1">
			<Properties Version="1">
				<MZ.BuildVersion.Created>14.0.1x71 - Premiere Pro</MZ.BuildVersion.Created>
			</Properties>
		</Node>
	</Project>
	<PresetPath>/Applications/Adobe Premiere Pro 2020/Adobe Premiere Pro 2020.app/Contents/Settings/HD.sqpreset</PresetPath>
</PremiereData>
`

// WriteContainer gzips payload into path, creating parent directories.
func WriteContainer(t testing.TB, path, payload string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, Gzip(t, payload), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Gzip compresses payload in memory.
func Gzip(t testing.TB, payload string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// ReadContainer returns the decompressed contents of the container at path.
func ReadContainer(t testing.TB, path string) string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader %s: %v", path, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// DirEntries lists the names in dir, failing the test on error.
func DirEntries(t testing.TB, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
