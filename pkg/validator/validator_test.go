package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingPayload struct {
	Score      int    `json:"score" validate:"required,gte=1,lte=5"`
	ReviewText string `json:"review_text" validate:"max=10"`
}

type bulkPayload struct {
	IDs []string `json:"ids" validate:"required,min=1,max=2,dive,uuid"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(ratingPayload{Score: 4, ReviewText: "nice"}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(ratingPayload{Score: 9, ReviewText: "far too long for this"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be less than or equal to 5", fields["score"])
	assert.Equal(t, "must be at most 10 characters", fields["review_text"])
	assert.Contains(t, valErr.Error(), "field 'score'")
}

func TestValidate_SliceRules(t *testing.T) {
	var valErr *ValidationError

	err := Validate(bulkPayload{IDs: []string{"a", "b", "c"}})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must contain at most 2 items", valErr.Fields()["ids"])

	err = Validate(bulkPayload{IDs: []string{"not-a-uuid"}})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid UUID", valErr.Fields()["ids[0]"])
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"score":5}`))
		var dst ratingPayload
		require.NoError(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst))
		assert.Equal(t, 5, dst.Score)
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"score":5,"stars":5}`))
		var dst ratingPayload
		err := DecodeAndValidate(httptest.NewRecorder(), r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		var dst ratingPayload
		err := DecodeAndValidate(httptest.NewRecorder(), r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty body")
	})

	t.Run("fails validation", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"score":0}`))
		var dst ratingPayload
		var valErr *ValidationError
		require.ErrorAs(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst), &valErr)
	})
}
