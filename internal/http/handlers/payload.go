package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

var errBadPayload = errors.New("invalid payload")

// flexInt accepts both JSON numbers and numeric strings, as sent by forms.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid integer", errBadPayload, s)
	}
	*f = flexInt(n)
	return nil
}

func (f *flexInt) intPtr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// multiValued lists form fields that are always decoded as arrays.
var multiValued = map[string]bool{"roles": true}

// bind decodes a JSON or multipart body into dst. For multipart bodies the
// bytes of fileField, if present, are returned.
func (a *App) bind(w http.ResponseWriter, r *http.Request, dst any, fileField string) ([]byte, error) {
	maxBytes := a.Config.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		return a.bindForm(r, dst, fileField, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if errors.Is(err, errBadPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil, nil
}

func (a *App) bindForm(r *http.Request, dst any, fileField string, maxBytes int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	values := map[string]any{}
	for k, v := range r.Form {
		if len(v) == 0 {
			continue
		}
		if multiValued[k] {
			values[k] = splitList(v)
		} else {
			values[k] = v[0]
		}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if errors.Is(err, errBadPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if fileField == "" || r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[fileField]
	if len(files) == 0 {
		return nil, nil
	}
	if files[0].Size > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the upload limit", errBadPayload, fileField)
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxBytes))
}

// splitList flattens repeated and comma separated form values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
