package validators

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00\xff\xdb")
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
)

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata(`{"title":" A ","date":"01.Jan.2025","category":"Street","aspectRatio":1.5,"id":"forged","urls":{"thumbnail":"x"}}`)
	require.NoError(t, err)

	assert.Equal(t, "A", m.Title)
	assert.Equal(t, "01.Jan.2025", m.Date)
	assert.Equal(t, "Street", m.Category)
	require.NotNil(t, m.AspectRatio)
	assert.Equal(t, 1.5, *m.AspectRatio)
}

func TestParseMetadataOptionalRatio(t *testing.T) {
	m, err := ParseMetadata(`{"title":"a","date":"01.Jan.2025","category":"Street"}`)
	require.NoError(t, err)
	assert.Nil(t, m.AspectRatio)
}

func TestParseMetadataRejects(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
	}{
		"malformed":        {`{"title":`, "malformed JSON"},
		"missing title":    {`{"date":"d","category":"Street","aspectRatio":1}`, "title is required"},
		"blank title":      {`{"title":"   ","date":"d","category":"Street","aspectRatio":1}`, "title is required"},
		"missing date":     {`{"title":"t","category":"Street","aspectRatio":1}`, "date is required"},
		"unknown category": {`{"title":"t","date":"d","category":"Food","aspectRatio":1}`, "category must be one of Street, Portrait, Travel, Architecture, Other"},
		"negative ratio":   {`{"title":"t","date":"d","category":"Street","aspectRatio":-1}`, "aspectRatio must be a positive number"},
		"zero ratio":       {`{"title":"t","date":"d","category":"Street","aspectRatio":0}`, "aspectRatio must be a positive number"},
		"long title":       {`{"title":"` + strings.Repeat("x", 201) + `","date":"d","category":"Street"}`, "title is too long"},
		"long description": {`{"title":"t","description":"` + strings.Repeat("x", 2001) + `","date":"d","category":"Street"}`, "description is too long"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMetadata(tt.raw)
			require.ErrorIs(t, err, ErrInvalidMetadata)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFileValidator(t *testing.T) {
	f := bytes.NewReader(jpegBytes)

	ct, err := FileValidator(f, int64(len(jpegBytes)), "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	// Rewound for the upload
	pos, err := f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestFileValidatorKeepsDeclaredType(t *testing.T) {
	ct, err := FileValidator(bytes.NewReader(jpegBytes), int64(len(jpegBytes)), "image/pjpeg", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/pjpeg", ct)

	ct, err = FileValidator(bytes.NewReader(pngBytes), int64(len(pngBytes)), "application/octet-stream", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
}

func TestFileValidatorRejects(t *testing.T) {
	text := []byte("definitely not an image")

	_, err := FileValidator(bytes.NewReader(nil), 0, "image/jpeg", 0, nil)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = FileValidator(bytes.NewReader(jpegBytes), int64(len(jpegBytes)), "", 4, nil)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = FileValidator(bytes.NewReader(text), int64(len(text)), "image/jpeg", 0, nil)
	assert.ErrorIs(t, err, ErrFileTypeUnsupported)

	_, err = FileValidator(bytes.NewReader(jpegBytes), int64(len(jpegBytes)), "text/plain", 0, nil)
	assert.ErrorIs(t, err, ErrFileTypeUnsupported)

	_, err = FileValidator(bytes.NewReader(pngBytes), int64(len(pngBytes)), "", 0, []string{"image/jpeg"})
	assert.ErrorIs(t, err, ErrFileTypeUnsupported)
}
