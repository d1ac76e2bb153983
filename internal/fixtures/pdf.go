// Package fixtures builds small statement documents for tests and for the
// sample generator: single-page PDFs (optionally RC4 encrypted) and xlsx
// workbooks.
package fixtures

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// passwordPad is the padding string of the PDF standard security handler.
var passwordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41, 0x64, 0x00, 0x4e, 0x56, 0xff, 0xfa, 0x01, 0x08,
	0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80, 0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

var documentID = []byte("card-statement-fixture-00000001")

// permissions is P = -4 as stored in the encryption dictionary.
var permissions int32 = -4

// PDF returns a one-page document whose content places each line on its own
// baseline with an absolute text matrix, top to bottom.
func PDF(lines []string) []byte {
	return build(lines, "")
}

// EncryptedPDF returns the same document protected with a 40-bit RC4 user
// password.
func EncryptedPDF(lines []string, userPassword string) []byte {
	return build(lines, userPassword)
}

func contentStream(lines []string) []byte {
	var b strings.Builder
	b.WriteString("BT\n/F1 9 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "1 0 0 1 40 %d Tm\n", 800-12*i)
		fmt.Fprintf(&b, "(%s) Tj\n", escape(winAnsi(line)))
	}
	b.WriteString("ET\n")
	return []byte(b.String())
}

// winAnsi converts s to the byte encoding declared for the font.
func winAnsi(s string) string {
	encoded, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return encoded
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// AES256PDF returns a document whose trailer declares an AES-256 (V5/R6)
// standard security handler. The content itself is left in clear text.
func AES256PDF(lines []string) []byte {
	zeros := make([]byte, 48)
	entry := fmt.Sprintf(" /Encrypt << /Filter /Standard /V 5 /R 6 /Length 256 /O <%x> /U <%x> /OE <%x> /UE <%x> /Perms <%x> /P %d >>",
		zeros, zeros, zeros[:32], zeros[:32], zeros[:16], permissions)
	return assemble(contentStream(lines), entry)
}

func build(lines []string, userPassword string) []byte {
	content := contentStream(lines)

	var encryptEntry string
	if userPassword != "" {
		owner := md5.Sum([]byte("owner:" + userPassword))
		o := append(owner[:], owner[:]...)
		key := fileKey(userPassword, o)

		u := make([]byte, 32)
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(u, passwordPad)

		content = rc4Object(key, 5, 0, content)
		encryptEntry = fmt.Sprintf(" /Encrypt << /Filter /Standard /V 1 /R 2 /Length 40 /O <%x> /U <%x> /P %d >>", o, u, permissions)
	}

	return assemble(content, encryptEntry)
}

func assemble(content []byte, encryptEntry string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, len(objects)+1)
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	offsets = append(offsets, buf.Len())
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n", len(content))
	buf.Write(content)
	buf.WriteString("\nendstream\nendobj\n")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /ID [<%x> <%x>]%s >>\n", len(offsets)+1, documentID, documentID, encryptEntry)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}

// fileKey is algorithm 2 of the standard security handler, revision 2.
func fileKey(userPassword string, owner []byte) []byte {
	pw := []byte(userPassword)
	if len(pw) > 32 {
		pw = pw[:32]
	}
	h := md5.New()
	h.Write(pw)
	h.Write(passwordPad[:32-len(pw)])
	h.Write(owner)
	p := uint32(permissions)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(documentID)
	return h.Sum(nil)[:5]
}

// rc4Object encrypts data belonging to object num/gen. The object key is the
// full MD5 digest, which is what the reader derives.
func rc4Object(key []byte, num, gen int, data []byte) []byte {
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), byte(gen), byte(gen >> 8)})
	objKey := h.Sum(nil)

	out := make([]byte, len(data))
	c, _ := rc4.NewCipher(objKey)
	c.XORKeyStream(out, data)
	return out
}
