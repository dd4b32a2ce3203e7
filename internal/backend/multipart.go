package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is an uploaded file streamed through to the API.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

// Form is an ordered multipart form body.
type Form struct {
	keys   []string
	values map[string]string
	file   *File
}

func NewForm() *Form {
	return &Form{values: map[string]string{}}
}

// Set adds or replaces a text field.
func (f *Form) Set(key, value string) *Form {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

// Attach adds the file part. A nil file leaves the field out entirely.
func (f *Form) Attach(file *File) *Form {
	f.file = file
	return f
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range f.keys {
		if err := w.WriteField(k, f.values[k]); err != nil {
			return nil, "", err
		}
	}
	if f.file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.file.Field), escapeQuotes(f.file.Filename)))
		ct := f.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.file.Body); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func (s *Session) sendForm(ctx context.Context, method, path string, form *Form, out any) error {
	body, ct, err := form.encode()
	if err != nil {
		return err
	}
	return s.do(ctx, method, path, body, ct, out)
}
