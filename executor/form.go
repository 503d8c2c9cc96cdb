package executor

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is a form value sent as a file part.
type File struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// Form is an ordered multipart form. The zero value is ready to use.
type Form struct {
	fields []formField
}

type formField struct {
	name  string
	value any
}

// Add appends a field. A [File], []byte or [io.Reader] becomes a file part,
// a string a text field, and any other value its fmt.Sprint text.
func (f *Form) Add(name string, value any) {
	f.fields = append(f.fields, formField{name: name, value: value})
}

// Len reports the number of fields.
func (f *Form) Len() int {
	if f == nil {
		return 0
	}
	return len(f.fields)
}

// Names returns the field names in insertion order.
func (f *Form) Names() []string {
	names := make([]string, 0, f.Len())
	if f == nil {
		return names
	}
	for _, fld := range f.fields {
		names = append(names, fld.name)
	}
	return names
}

// encode writes the form as multipart/form-data and returns the body with its content type.
func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if err := writeField(w, fld); err != nil {
			return nil, "", fmt.Errorf("form field %q: %w", fld.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeField(w *multipart.Writer, fld formField) error {
	switch v := fld.value.(type) {
	case string:
		return w.WriteField(fld.name, v)
	case File:
		return writeFile(w, fld.name, v)
	case *File:
		return writeFile(w, fld.name, *v)
	case []byte:
		return writeFile(w, fld.name, File{Name: fld.name, Data: bytes.NewReader(v)})
	case io.Reader:
		return writeFile(w, fld.name, File{Name: fld.name, Data: v})
	default:
		return w.WriteField(fld.name, fmt.Sprint(v))
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, field string, file File) error {
	name := file.Name
	if name == "" {
		name = field
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	if file.Data == nil {
		return nil
	}
	if _, err := io.Copy(part, file.Data); err != nil {
		return fmt.Errorf("copying file data: %w", err)
	}

	return nil
}
