package models

import "errors"

// Request is a read-only query against the ingested corpus.
type Request struct {
	Verb   string `json:"verb" yaml:"verb"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`       // show
	Query  string `json:"query,omitempty" yaml:"query,omitempty"` // search
	Limit  int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // json, yaml
}

// Response is the result of a corpus Request.
type Response struct {
	Verb  string      `json:"verb" yaml:"verb"`
	Count int         `json:"count" yaml:"count"`
	Data  interface{} `json:"data" yaml:"data"`
	Error *ErrorInfo  `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorInfo provides structured error information.
type ErrorInfo struct {
	Type             string   `json:"error_type" yaml:"error_type"`
	Message          string   `json:"message" yaml:"message"`
	SuggestedActions []string `json:"suggested_actions,omitempty" yaml:"suggested_actions,omitempty"`
}

// NewErrorResponse wraps err as a Response, classified with ErrorKind.
func NewErrorResponse(verb string, err error, actions ...string) Response {
	kind := ErrorKind(err)
	if errors.Is(err, ErrNotFound) {
		kind = "not_found"
	}
	return Response{
		Verb: verb,
		Error: &ErrorInfo{
			Type:             kind,
			Message:          err.Error(),
			SuggestedActions: actions,
		},
	}
}

// NewUnknownVerbResponse creates a response for unknown verbs.
func NewUnknownVerbResponse(verb string, suggestion string, valid []string) Response {
	msg := "Verb '" + verb + "' not recognized"
	if suggestion != "" {
		msg += ". Did you mean '" + suggestion + "'?"
	}

	actions := []string{}
	if len(valid) > 0 {
		list := valid[0]
		for _, v := range valid[1:] {
			list += ", " + v
		}
		actions = append(actions, "Valid verbs: "+list)
	}

	return Response{
		Verb: verb,
		Error: &ErrorInfo{
			Type:             "unknown_verb",
			Message:          msg,
			SuggestedActions: actions,
		},
	}
}
