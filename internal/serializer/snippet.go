// Package serializer maps between stored records and their JSON wire form.
//
// EXPLICIT FIELD MAPPING:
// Every wire field is listed by hand, both on the way out (SnippetJSON) and on
// the way in (snippetFields). There is no reflection over struct tags: adding a
// column to the model does not put it on the wire until someone adds it here.
//
// INPUT IS DECODED, THEN VALIDATED:
// DecodeSnippet never fails. It records every field problem it finds and the
// caller decides when to report them with Validate. The snippet service needs
// that split: an update must answer 404 and 403 before it answers 400.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// MaxTitleLength is the longest title accepted, counted in characters.
const MaxTitleLength = 100

// Field error messages. Clients match on these strings, so they don't change.
const (
	msgRequired  = "This field is required."
	msgBlank     = "This field may not be blank."
	msgNull      = "This field may not be null."
	msgNotString = "Not a valid string."
	msgNotBool   = "Must be a valid boolean."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func msgInvalidChoice(input string) string {
	return fmt.Sprintf("%q is not a valid choice.", input)
}

// SnippetJSON is the wire representation of a snippet.
// Owner is the owner's username and is read-only.
type SnippetJSON struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Code     string `json:"code"`
	Linenos  bool   `json:"linenos"`
	Language string `json:"language"`
	Style    string `json:"style"`
	Owner    string `json:"owner"`
}

// Snippet renders a single snippet.
func Snippet(s *model.Snippet) SnippetJSON {
	return SnippetJSON{
		ID:       s.ID,
		Title:    s.Title,
		Code:     s.Code,
		Linenos:  s.Linenos,
		Language: s.Language,
		Style:    s.Style,
		Owner:    s.Owner,
	}
}

// Snippets renders a list, never returning nil so the JSON is [] and not null.
func Snippets(list []model.Snippet) []SnippetJSON {
	out := make([]SnippetJSON, 0, len(list))
	for i := range list {
		out = append(out, Snippet(&list[i]))
	}
	return out
}

// SnippetInput holds the writable fields decoded from a request body.
//
// A nil field was absent from a partial update and must be left alone.
// For a full create or update every field is set, with defaults filled in.
type SnippetInput struct {
	Title    *string
	Code     *string
	Linenos  *bool
	Language *string
	Style    *string

	errs map[string][]string
}

// fieldSpec describes one writable wire field.
//
// decode parses the raw JSON value into the input and returns a field error
// message, or "" when the value is acceptable. setDefault fills the field when
// a full (non-partial) body leaves it out; required fields have none.
type fieldSpec struct {
	name       string
	required   bool
	decode     func(in *SnippetInput, value any) string
	setDefault func(in *SnippetInput)
}

// snippetFields is the field table for snippet input, in wire order.
// "id" and "owner" are read-only and have no entry, so input values for them are ignored.
var snippetFields = []fieldSpec{
	{
		name: "title",
		decode: func(in *SnippetInput, value any) string {
			s, msg := charField(value)
			if msg != "" {
				return msg
			}
			if utf8.RuneCountInString(s) > MaxTitleLength {
				return msgMaxLength(MaxTitleLength)
			}
			in.Title = &s
			return ""
		},
		setDefault: func(in *SnippetInput) { in.Title = ptr("") },
	},
	{
		name:     "code",
		required: true,
		decode: func(in *SnippetInput, value any) string {
			s, msg := charField(value)
			if msg != "" {
				return msg
			}
			if s == "" {
				return msgBlank
			}
			in.Code = &s
			return ""
		},
	},
	{
		name: "linenos",
		decode: func(in *SnippetInput, value any) string {
			b, msg := boolField(value)
			if msg != "" {
				return msg
			}
			in.Linenos = &b
			return ""
		},
		setDefault: func(in *SnippetInput) { in.Linenos = ptr(false) },
	},
	{
		name: "language",
		decode: func(in *SnippetInput, value any) string {
			s, msg := choiceField(value, model.IsLanguage)
			if msg != "" {
				return msg
			}
			in.Language = &s
			return ""
		},
		setDefault: func(in *SnippetInput) { in.Language = ptr(model.DefaultLanguage) },
	},
	{
		name: "style",
		decode: func(in *SnippetInput, value any) string {
			s, msg := choiceField(value, model.IsStyle)
			if msg != "" {
				return msg
			}
			in.Style = &s
			return ""
		},
		setDefault: func(in *SnippetInput) { in.Style = ptr(model.DefaultStyle) },
	},
}

// DecodeSnippet decodes a request body into a SnippetInput.
//
// With partial=false (create, PUT) absent optional fields get their defaults
// and an absent "code" is an error. With partial=true (PATCH) absent fields
// stay nil. Unknown keys, "id" and "owner" are ignored.
func DecodeSnippet(body []byte, partial bool) *SnippetInput {
	in := &SnippetInput{errs: make(map[string][]string)}

	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if msg := decodeObject(body, &raw); msg != "" {
			in.addError(apperror.NonFieldErrors, msg)
			return in
		}
	}

	for _, f := range snippetFields {
		value, present := raw[f.name]
		if !present {
			switch {
			case partial:
			case f.required:
				in.addError(f.name, msgRequired)
			default:
				f.setDefault(in)
			}
			continue
		}
		if msg := f.decode(in, decodeValue(value)); msg != "" {
			in.addError(f.name, msg)
		}
	}

	return in
}

// Validate reports the problems found while decoding, all fields at once.
// It returns nil when the input can be applied.
func (in *SnippetInput) Validate() error {
	if len(in.errs) == 0 {
		return nil
	}
	return apperror.Invalid(maps.Clone(in.errs))
}

// Apply copies every decoded field onto s. Nil fields leave s untouched.
func (in *SnippetInput) Apply(s *model.Snippet) {
	if in.Title != nil {
		s.Title = *in.Title
	}
	if in.Code != nil {
		s.Code = *in.Code
	}
	if in.Linenos != nil {
		s.Linenos = *in.Linenos
	}
	if in.Language != nil {
		s.Language = *in.Language
	}
	if in.Style != nil {
		s.Style = *in.Style
	}
}

func (in *SnippetInput) addError(field, msg string) {
	in.errs[field] = append(in.errs[field], msg)
}

// decodeObject unmarshals body into a JSON object. On failure it returns the
// non-field error message describing what was wrong.
func decodeObject(body []byte, raw *map[string]json.RawMessage) string {
	err := json.Unmarshal(body, raw)
	if err == nil && *raw != nil {
		return ""
	}

	// Either malformed JSON or valid JSON of the wrong shape. Tell them apart.
	var v any
	if jerr := json.Unmarshal(body, &v); jerr != nil {
		return "JSON parse error - " + jerr.Error()
	}
	return fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", jsonTypeName(v))
}

// decodeValue turns a raw field value into string, json.Number, bool, nil,
// []any or map[string]any. Numbers stay as json.Number so "1" and 1.0 keep
// their original text.
func decodeValue(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// charField accepts strings and numbers, trims surrounding whitespace, and
// rejects null, booleans, arrays and objects.
func charField(value any) (string, string) {
	switch v := value.(type) {
	case nil:
		return "", msgNull
	case string:
		return strings.TrimSpace(v), ""
	case json.Number:
		return v.String(), ""
	default:
		return "", msgNotString
	}
}

var (
	trueStrings  = []string{"t", "T", "y", "Y", "yes", "Yes", "YES", "true", "True", "TRUE", "on", "On", "ON", "1"}
	falseStrings = []string{"f", "F", "n", "N", "no", "No", "NO", "false", "False", "FALSE", "off", "Off", "OFF", "0"}
)

// boolField accepts JSON booleans, the numbers 1 and 0, and the usual
// spellings of true and false used by HTML forms.
func boolField(value any) (bool, string) {
	switch v := value.(type) {
	case nil:
		return false, msgNull
	case bool:
		return v, ""
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err == nil && f == 1 {
			return true, ""
		}
		if err == nil && f == 0 {
			return false, ""
		}
	case string:
		for _, s := range trueStrings {
			if v == s {
				return true, ""
			}
		}
		for _, s := range falseStrings {
			if v == s {
				return false, ""
			}
		}
	}
	return false, msgNotBool
}

// choiceField checks value against a fixed set of names.
func choiceField(value any, valid func(string) bool) (string, string) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", msgNull
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		s = strings.ToUpper(strconv.FormatBool(v)[:1]) + strconv.FormatBool(v)[1:]
	default:
		b, _ := json.Marshal(v)
		s = string(b)
	}
	if !valid(s) {
		return "", msgInvalidChoice(s)
	}
	return s, ""
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "list"
	case string:
		return "str"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func ptr[T any](v T) *T {
	return &v
}
