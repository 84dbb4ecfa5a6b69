package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fasthttp"
)

// DecodeChain undoes the Content-Encoding applied to a response body before
// it is handed to the JSON parser. The header lists encodings in application
// order, so they are undone right to left; chained values like "gzip, br"
// are supported. Returns the decoded body and whether any decoding ran.
func DecodeChain(resp *fasthttp.Response, body []byte) ([]byte, bool, error) {
	header := string(resp.Header.Peek("Content-Encoding"))
	if header == "" {
		return body, false, nil
	}

	encodings := strings.Split(header, ",")
	changed := false
	for i := len(encodings) - 1; i >= 0; i-- {
		name := strings.TrimSpace(strings.ToLower(encodings[i]))
		if name == "" || name == "identity" {
			continue
		}
		out, err := decodeOne(name, body)
		if err != nil {
			return nil, false, err
		}
		body = out
		changed = true
	}
	return body, changed, nil
}

func decodeOne(encoding string, body []byte) ([]byte, error) {
	switch encoding {
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		out, err := io.ReadAll(gr)
		if cerr := gr.Close(); err == nil {
			err = cerr
		}
		return out, err
	case "zstd":
		dec, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case "deflate":
		// zlib wrapping per the RFC, raw streams as the fallback some
		// servers still send
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			out, err := io.ReadAll(zr)
			if cerr := zr.Close(); err == nil {
				err = cerr
			}
			return out, err
		}
		fr := flate.NewReader(bytes.NewReader(body))
		out, err := io.ReadAll(fr)
		if cerr := fr.Close(); err == nil {
			err = cerr
		}
		return out, err
	default:
		return nil, fmt.Errorf("unsupported content-encoding: %q", encoding)
	}
}
