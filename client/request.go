package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// Request is a replayable API request. The body is kept in memory so the
// request can be sent again after a token refresh.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Header      http.Header

	retried bool
}

// Retried reports whether the request has already been replayed after a refresh.
func (r *Request) Retried() bool { return r.retried }

// NewRequest creates a request without a body.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path}
}

// NewJSONRequest creates a request with v encoded as its JSON body.
// A nil v produces a request without a body.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	req := NewRequest(method, path)
	if v == nil {
		return req, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

// FormField is a plain multipart field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a multipart file part.
type FormFile struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// Form is a multipart/form-data body. Fields keep their order on the wire.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// AddField appends a plain field.
func (f *Form) AddField(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// AddFile appends a file part.
func (f *Form) AddFile(field, fileName, contentType string, data []byte) {
	f.Files = append(f.Files, FormFile{Field: field, FileName: fileName, ContentType: contentType, Data: data})
}

// NewMultipartRequest encodes form into a replayable request.
func NewMultipartRequest(method, path string, form *Form) (*Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, file := range form.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.FileName))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file %s: %w", file.Field, err)
		}
	}
	for _, field := range form.Fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", field.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	req := NewRequest(method, path)
	req.Body = buf.Bytes()
	req.ContentType = w.FormDataContentType()
	return req, nil
}
