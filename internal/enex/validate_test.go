package enex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsEmptyExport(t *testing.T) {
	root, perr := Validate([]byte(`<?xml version="1.0" encoding="UTF-8"?><en-export></en-export>`))
	require.Nil(t, perr)
	require.NotNil(t, root)
	require.Equal(t, "en-export", root.Tag)
}

func TestValidateRejectsMalformedXML(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not xml", data: "just some text"},
		{name: "unclosed element", data: "<en-export><note></en-export>"},
		{name: "multiple roots", data: "<en-export></en-export><en-export></en-export>"},
		{name: "empty input", data: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, perr := Validate([]byte(tt.data))
			require.Nil(t, root)
			require.NotNil(t, perr)
			require.Equal(t, CodeInvalidXML, perr.Code)
			require.NotEmpty(t, perr.Details)
		})
	}
}

func TestValidateRejectsWrongRoot(t *testing.T) {
	root, perr := Validate([]byte(`<export><note></note></export>`))
	require.Nil(t, root)
	require.NotNil(t, perr)
	require.Equal(t, CodeInvalidEnex, perr.Code)
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Code: CodeInvalidXML, Message: "bad", Details: "line 3"}
	require.Equal(t, "bad: line 3", err.Error())
	err = &ParseError{Code: CodeInvalidEnex, Message: "bad"}
	require.Equal(t, "bad", err.Error())
}
