// Package container reads and writes the gzip wrapper around a project's XML
// payload. It knows nothing about the payload beyond requiring valid UTF-8.
//
// Writes never land partially at the destination: the stream is staged in a
// hidden temp file next to it and published with a no-replace rename.
package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"prdowngrade/internal/faults"
	"prdowngrade/internal/fileutil"
	"prdowngrade/internal/project"
)

const (
	bufSize  = 64 * 1024
	fileMode = 0o644
)

// DefaultLevel is the gzip level used when none is configured.
const DefaultLevel = gzip.DefaultCompression

// Codec decompresses and compresses project containers.
type Codec struct {
	level int
}

// New returns a Codec writing at the given gzip level (-1 for the default).
func New(level int) (*Codec, error) {
	if level < gzip.DefaultCompression || level > gzip.BestCompression {
		return nil, fmt.Errorf("gzip level %d out of range [%d, %d]", level, gzip.DefaultCompression, gzip.BestCompression)
	}
	return &Codec{level: level}, nil
}

// Default returns a Codec at DefaultLevel.
func Default() *Codec {
	return &Codec{level: DefaultLevel}
}

// Decompress reads the container at path and returns its text payload.
func (c *Codec) Decompress(ctx context.Context, path string) (project.Payload, error) {
	const op = "decompress"

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrapf(faults.KindNotFound, op, path, err, "input file does not exist")
		}
		return nil, faults.Wrap(faults.KindIO, op, path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err != nil {
		return nil, faults.Wrap(faults.KindIO, op, path, err)
	} else if info.IsDir() {
		return nil, faults.New(faults.KindIO, op, path, "input is a directory")
	}

	src := &trackingReader{r: f}
	zr, err := gzip.NewReader(bufio.NewReaderSize(readerWithCtx(ctx, src), bufSize))
	if err != nil {
		return nil, classifyRead(ctx, op, path, src, err, "not a gzip stream")
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, classifyRead(ctx, op, path, src, err, "corrupt gzip stream")
	}

	payload := project.Payload(data)
	if !payload.Valid() {
		return nil, faults.New(faults.KindFormat, op, path, "payload is not valid UTF-8")
	}
	return payload, nil
}

// Compress writes payload as a complete gzip container at dest. An existing
// dest is never replaced and yields an output_exists failure.
func (c *Codec) Compress(ctx context.Context, payload project.Payload, dest string) (err error) {
	const op = "compress"

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "create temp file")
	}
	tmpPath := tmp.Name()
	published := false
	defer func() {
		if !published {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	_ = tmp.Chmod(fileMode)

	bw := bufio.NewWriterSize(tmp, bufSize)
	zw, err := gzip.NewWriterLevel(bw, c.level)
	if err != nil {
		return faults.Wrap(faults.KindIO, op, dest, err)
	}
	if err := writeWithCtx(ctx, zw, payload); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "write payload")
	}
	if err := zw.Close(); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "finish gzip stream")
	}
	if err := bw.Flush(); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "flush temp file")
	}
	if err := tmp.Sync(); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "close temp file")
	}
	if err := ctx.Err(); err != nil {
		return faults.Wrapf(faults.KindIO, op, dest, err, "cancelled before publish")
	}

	if err := fileutil.PublishNoClobber(tmpPath, dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return faults.Wrap(faults.KindOutputExists, op, dest, err)
		}
		return faults.Wrap(faults.KindIO, op, dest, err)
	}
	published = true
	return nil
}

func classifyRead(ctx context.Context, op, path string, src *trackingReader, err error, detail string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return faults.Wrapf(faults.KindIO, op, path, ctxErr, "cancelled")
	}
	if src.err != nil {
		return faults.Wrap(faults.KindIO, op, path, src.err)
	}
	return faults.Wrapf(faults.KindFormat, op, path, err, "%s", detail)
}

// trackingReader remembers the first non-EOF error from the underlying file
// so storage failures are not misreported as corrupt data.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}

func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

func writeWithCtx(ctx context.Context, w io.Writer, data []byte) error {
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(len(data), bufSize)
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
