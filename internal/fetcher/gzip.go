package fetcher

import (
	"compress/gzip"
	"io"

	"github.com/rotisserie/eris"
)

// Gunzip wraps a gzip-compressed stream with a decompressing reader.
// Closing the returned reader closes the underlying stream too.
func Gunzip(r io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		_ = r.Close()
		return nil, eris.Wrap(err, "gzip: open stream")
	}
	return &gunzipReader{zr: zr, underlying: r}, nil
}

type gunzipReader struct {
	zr         *gzip.Reader
	underlying io.Closer
}

func (g *gunzipReader) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gunzipReader) Close() error {
	zerr := g.zr.Close()
	uerr := g.underlying.Close()
	if zerr != nil {
		return eris.Wrap(zerr, "gzip: close")
	}
	if uerr != nil {
		return eris.Wrap(uerr, "gzip: close underlying")
	}
	return nil
}
