package server

import (
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// newForm writes a multipart body with fields and one file and returns its content type.
func newForm(t *testing.T, w io.Writer, fields map[string]string, fileField, filename, content string) string {
	t.Helper()
	mw := multipart.NewWriter(w)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType()
}
