package serializer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// fieldErrors runs Validate and returns the field map, failing if the input is valid.
func fieldErrors(t *testing.T, in *SnippetInput) map[string][]string {
	t.Helper()
	err := in.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, apperror.ErrValidation))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	return appErr.FieldErrors()
}

// =========================================================================
// FULL DECODE (create / PUT)
// =========================================================================

func TestDecodeSnippet_FillsDefaults(t *testing.T) {
	in := DecodeSnippet([]byte(`{"code":"print(1)"}`), false)
	require.NoError(t, in.Validate())

	var s model.Snippet
	in.Apply(&s)

	assert.Equal(t, "", s.Title)
	assert.Equal(t, "print(1)", s.Code)
	assert.False(t, s.Linenos)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, "friendly", s.Style)
}

func TestDecodeSnippet_AllFields(t *testing.T) {
	body := `{"title":"  Hi  ","code":"fmt.Println(1)","linenos":true,"language":"go","style":"monokai"}`
	in := DecodeSnippet([]byte(body), false)
	require.NoError(t, in.Validate())

	var s model.Snippet
	in.Apply(&s)

	assert.Equal(t, "Hi", s.Title, "title is trimmed")
	assert.Equal(t, "fmt.Println(1)", s.Code)
	assert.True(t, s.Linenos)
	assert.Equal(t, "go", s.Language)
	assert.Equal(t, "monokai", s.Style)
}

func TestDecodeSnippet_IgnoresReadOnlyAndUnknownFields(t *testing.T) {
	body := `{"id":99,"owner":"mallory","code":"x","colour":"red"}`
	in := DecodeSnippet([]byte(body), false)
	require.NoError(t, in.Validate())

	s := model.Snippet{ID: 7, OwnerID: 3, Owner: "alice"}
	in.Apply(&s)

	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, int64(3), s.OwnerID)
	assert.Equal(t, "alice", s.Owner)
}

func TestDecodeSnippet_EmptyBodyRequiresCode(t *testing.T) {
	for _, body := range []string{"", "   ", "{}"} {
		errs := fieldErrors(t, DecodeSnippet([]byte(body), false))
		assert.Equal(t, map[string][]string{"code": {"This field is required."}}, errs, "body %q", body)
	}
}

func TestDecodeSnippet_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{"blank code", `{"code":""}`, "code", "This field may not be blank."},
		{"whitespace code", `{"code":"  \n\t "}`, "code", "This field may not be blank."},
		{"null code", `{"code":null}`, "code", "This field may not be null."},
		{"object code", `{"code":{"a":1}}`, "code", "Not a valid string."},
		{"bool title", `{"code":"x","title":true}`, "title", "Not a valid string."},
		{"long title", `{"code":"x","title":"` + strings.Repeat("a", 101) + `"}`, "title", "Ensure this field has no more than 100 characters."},
		{"bad language", `{"code":"x","language":"cobol"}`, "language", `"cobol" is not a valid choice.`},
		{"empty language", `{"code":"x","language":""}`, "language", `"" is not a valid choice.`},
		{"numeric style", `{"code":"x","style":5}`, "style", `"5" is not a valid choice.`},
		{"bad boolean", `{"code":"x","linenos":"maybe"}`, "linenos", "Must be a valid boolean."},
		{"number 2 is not a boolean", `{"code":"x","linenos":2}`, "linenos", "Must be a valid boolean."},
		{"null linenos", `{"code":"x","linenos":null}`, "linenos", "This field may not be null."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := fieldErrors(t, DecodeSnippet([]byte(tt.body), false))
			assert.Equal(t, []string{tt.want}, errs[tt.field])
		})
	}
}

func TestDecodeSnippet_ReportsEveryFailingField(t *testing.T) {
	errs := fieldErrors(t, DecodeSnippet([]byte(`{"language":"cobol","style":"neon"}`), false))

	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "code")
	assert.Contains(t, errs, "language")
	assert.Contains(t, errs, "style")
}

func TestDecodeSnippet_TitleAtLimitIsAccepted(t *testing.T) {
	// 100 multi-byte characters: the limit counts characters, not bytes.
	title := strings.Repeat("é", MaxTitleLength)
	in := DecodeSnippet([]byte(`{"code":"x","title":"`+title+`"}`), false)
	assert.NoError(t, in.Validate())
}

func TestDecodeSnippet_BooleanSpellings(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"yes"`, true},
		{`"off"`, false},
		{`"True"`, true},
		{`"0"`, false},
	}
	for _, tt := range tests {
		in := DecodeSnippet([]byte(`{"code":"x","linenos":`+tt.raw+`}`), false)
		require.NoError(t, in.Validate(), "linenos=%s", tt.raw)
		require.NotNil(t, in.Linenos)
		assert.Equal(t, tt.want, *in.Linenos, "linenos=%s", tt.raw)
	}
}

func TestDecodeSnippet_NumericTitleIsStringified(t *testing.T) {
	in := DecodeSnippet([]byte(`{"code":"x","title":42}`), false)
	require.NoError(t, in.Validate())
	assert.Equal(t, "42", *in.Title)
}

func TestDecodeSnippet_NonObjectBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"array", `[1,2]`, "Invalid data. Expected a dictionary, but got list."},
		{"string", `"code"`, "Invalid data. Expected a dictionary, but got str."},
		{"null", `null`, "Invalid data. Expected a dictionary, but got null."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := fieldErrors(t, DecodeSnippet([]byte(tt.body), false))
			assert.Equal(t, []string{tt.want}, errs[apperror.NonFieldErrors])
		})
	}
}

func TestDecodeSnippet_MalformedJSON(t *testing.T) {
	errs := fieldErrors(t, DecodeSnippet([]byte(`{"code":`), false))
	require.Len(t, errs[apperror.NonFieldErrors], 1)
	assert.True(t, strings.HasPrefix(errs[apperror.NonFieldErrors][0], "JSON parse error - "))
}

// =========================================================================
// PARTIAL DECODE (PATCH)
// =========================================================================

func TestDecodeSnippet_PartialLeavesAbsentFieldsAlone(t *testing.T) {
	in := DecodeSnippet([]byte(`{"title":"renamed"}`), true)
	require.NoError(t, in.Validate())

	s := model.Snippet{Title: "old", Code: "keep", Linenos: true, Language: "go", Style: "vim"}
	in.Apply(&s)

	assert.Equal(t, "renamed", s.Title)
	assert.Equal(t, "keep", s.Code)
	assert.True(t, s.Linenos)
	assert.Equal(t, "go", s.Language)
	assert.Equal(t, "vim", s.Style)
}

func TestDecodeSnippet_PartialStillValidatesPresentFields(t *testing.T) {
	errs := fieldErrors(t, DecodeSnippet([]byte(`{"code":""}`), true))
	assert.Equal(t, map[string][]string{"code": {"This field may not be blank."}}, errs)
}

func TestDecodeSnippet_PartialEmptyBodyIsValid(t *testing.T) {
	assert.NoError(t, DecodeSnippet(nil, true).Validate())
}

// =========================================================================
// RENDERING
// =========================================================================

func TestSnippet_RoundTrip(t *testing.T) {
	original := model.Snippet{
		ID: 5, Title: "t", Code: "c", Linenos: true,
		Language: "rust", Style: "nord", OwnerID: 2, Owner: "bob",
	}

	b, err := json.Marshal(Snippet(&original))
	require.NoError(t, err)

	in := DecodeSnippet(b, false)
	require.NoError(t, in.Validate())

	var decoded model.Snippet
	in.Apply(&decoded)

	assert.Equal(t, original.Title, decoded.Title)
	assert.Equal(t, original.Code, decoded.Code)
	assert.Equal(t, original.Linenos, decoded.Linenos)
	assert.Equal(t, original.Language, decoded.Language)
	assert.Equal(t, original.Style, decoded.Style)
}

func TestSnippet_WireShape(t *testing.T) {
	b, err := json.Marshal(Snippet(&model.Snippet{ID: 1, Code: "x", Language: "python", Style: "friendly", Owner: "alice"}))
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"id":1,"title":"","code":"x","linenos":false,"language":"python","style":"friendly","owner":"alice"}`,
		string(b))
}

func TestSnippets_EmptyIsArray(t *testing.T) {
	b, err := json.Marshal(Snippets(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestUser_WireShape(t *testing.T) {
	b, err := json.Marshal(User(&model.User{ID: 3, Username: "carol", PasswordHash: "secret", Email: "c@example.com"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"username":"carol","snippets":[]}`, string(b))

	b, err = json.Marshal(Users([]model.User{{ID: 1, Username: "a", Snippets: []int64{4, 9}}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"username":"a","snippets":[4,9]}]`, string(b))
}
