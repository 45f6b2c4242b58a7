package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// decodeBody undoes the Content-Encoding of resp and converts the document to
// UTF-8 using the declared or sniffed charset. At most limit bytes of the
// decoded document are kept; truncated reports whether more were available.
func decodeBody(resp *http.Response, limit int64) (body string, truncated bool, err error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return "", false, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case "deflate":
		fr := flate.NewReader(r)
		defer fr.Close()
		r = fr
	case "br":
		r = brotli.NewReader(r)
	default:
		return "", false, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	utf8Reader, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", false, fmt.Errorf("charset: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(utf8Reader, limit+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(data)) > limit {
		return string(data[:limit]), true, nil
	}
	return string(data), false, nil
}
