package loader

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// Document is an opened, decrypted PDF statement
type Document struct {
	reader    *pdf.Reader
	filename  string
	encrypted bool
}

// Encrypted reports whether the source carried an encryption dictionary
func (d *Document) Encrypted() bool {
	return d.encrypted
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// OpenPDF passes data through the decryption gate. Encrypted documents
// without a password fail with PasswordRequired, a password that does not
// decrypt fails with InvalidPassword and unparseable bytes fail with
// InvalidDocument.
func OpenPDF(data []byte, filename, password string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = errors.InvalidDocument(filename, fmt.Errorf("pdf reader crashed: %v", r))
		}
	}()

	log := logger.WithComponent("loader").WithField("filename", filename)
	src := bytes.NewReader(data)
	size := int64(len(data))

	declared := declaresEncryption(data)
	if declared && password == "" {
		log.Info("encrypted document submitted without password")
		return nil, errors.PasswordRequired(filename)
	}

	reader, encrypted, err := probe(src, size)
	if err != nil {
		if declared {
			log.WithError(err).Warn("encryption handler not supported")
			return nil, errors.UnsupportedEncryption(filename, err)
		}
		return nil, errors.InvalidDocument(filename, err)
	}

	if encrypted {
		if password == "" {
			log.Info("encrypted document submitted without password")
			return nil, errors.PasswordRequired(filename)
		}
		reader, err = pdf.NewReaderEncrypted(src, size, passwordOnce(password))
		if err == pdf.ErrInvalidPassword {
			log.Info("password rejected")
			return nil, errors.InvalidPassword(filename, err)
		}
		if err != nil {
			return nil, errors.InvalidDocument(filename, err)
		}
	}

	log.WithFields(logger.Fields{
		"pages":     reader.NumPage(),
		"encrypted": encrypted,
	}).Debug("pdf opened")

	return &Document{reader: reader, filename: filename, encrypted: encrypted}, nil
}

var encryptRe = regexp.MustCompile(`/Encrypt\s*(<<|\d+\s+\d+\s+R)`)

// declaresEncryption reports whether a trailer or cross-reference stream
// carries an encryption dictionary, whatever its security handler.
func declaresEncryption(data []byte) bool {
	return encryptRe.Match(data)
}

// probe opens the document with the empty user password. A document whose
// user password is non-empty reports encrypted with a nil reader.
func probe(src *bytes.Reader, size int64) (*pdf.Reader, bool, error) {
	reader, err := pdf.NewReader(src, size)
	if err == pdf.ErrInvalidPassword {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return reader, !reader.Trailer().Key("Encrypt").IsNull(), nil
}

// passwordOnce yields the password a single time; the reader keeps asking
// until it receives "".
func passwordOnce(password string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return password
	}
}

// Text concatenates the text of every page in order, separated by newlines.
func (d *Document) Text() (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InvalidDocument(d.filename, fmt.Errorf("text extraction crashed: %v", r))
		}
	}()

	var pages []string
	for i := 1; i <= d.reader.NumPage(); i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(page))
	}
	return strings.Join(pages, "\n"), nil
}

// pageText rebuilds the page's lines from positioned text rows, falling
// back to the plain text stream when no rows come out.
func pageText(page pdf.Page) string {
	var lines []string
	if rows, err := page.GetTextByRow(); err == nil {
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}

	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
