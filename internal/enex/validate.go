package enex

// Error codes for structural document failures. Both are fatal to the whole
// import and nothing is persisted when they occur.
const (
	CodeInvalidXML  = "INVALID_XML"
	CodeInvalidEnex = "INVALID_ENEX"
)

const rootTag = "en-export"

// ParseError reports a structural failure of the uploaded document.
type ParseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Validate checks that data is well-formed XML with an en-export root and
// returns the parsed tree. An archive with zero notes is valid.
func Validate(data []byte) (*Element, *ParseError) {
	root, err := parseTree(data)
	if err != nil {
		return nil, &ParseError{
			Code:    CodeInvalidXML,
			Message: "Uploaded file is not well-formed XML.",
			Details: err.Error(),
		}
	}
	if root.Tag != rootTag {
		return nil, &ParseError{
			Code:    CodeInvalidEnex,
			Message: "Missing <en-export> root element.",
		}
	}
	return root, nil
}
