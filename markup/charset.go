package markup

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"rtdoc/document"
)

// ParseEncoded is Parse for input which may not be UTF-8. When enc is nil
// encoding is detected from byte order mark or meta declaration, otherwise
// input is always decoded with enc.
func (p *Parser) ParseEncoded(r io.Reader, enc encoding.Encoding) (*document.Document, error) {
	if enc != nil {
		if name, err := ianaindex.IANA.Name(enc); err == nil {
			p.log.Debug("Decoding markup", zap.String("charset", name))
		}
		return p.Parse(transform.NewReader(r, enc.NewDecoder()))
	}
	cr, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("unable to detect markup encoding: %w", err)
	}
	return p.Parse(cr)
}
