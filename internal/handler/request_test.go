package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-rest-api/pkg/apierror"
)

func TestOptionalIntDecoding(t *testing.T) {
	cases := []struct {
		body  string
		set   bool
		valid bool
		value int64
	}{
		{`{}`, false, false, 0},
		{`{"stock":null}`, false, false, 0},
		{`{"stock":""}`, false, false, 0},
		{`{"stock":"  "}`, false, false, 0},
		{`{"stock":7}`, true, true, 7},
		{`{"stock":"12"}`, true, true, 12},
		{`{"stock":-3}`, true, true, -3},
		{`{"stock":2.5}`, true, false, 0},
		{`{"stock":"many"}`, true, false, 0},
	}
	for _, tc := range cases {
		var req updateProductRequest
		require.NoError(t, json.Unmarshal([]byte(tc.body), &req), tc.body)
		assert.Equal(t, tc.set, req.Stock.Set, tc.body)
		assert.Equal(t, tc.valid, req.Stock.Valid, tc.body)
		assert.Equal(t, tc.value, req.Stock.Value, tc.body)
		if tc.set {
			require.NotNil(t, req.Stock.ptr(), tc.body)
		} else {
			assert.Nil(t, req.Stock.ptr(), tc.body)
		}
	}
}

func TestFormStock(t *testing.T) {
	n, err := formStock(" 5 ")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, int64(5), *n)

	n, err = formStock("")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = formStock("five")
	assert.Equal(t, apierror.CodeValidation, apierror.CodeOf(err))
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/product?page=3&limit=x", nil)
	assert.Equal(t, 3, queryInt(req, "page"))
	assert.Equal(t, 0, queryInt(req, "limit"))
	assert.Equal(t, 0, queryInt(req, "missing"))
}

func TestDecodeJSONErrors(t *testing.T) {
	var v map[string]string

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	err := decodeJSON(httptest.NewRecorder(), req, &v)
	assert.Equal(t, apierror.CodeBadRequest, apierror.CodeOf(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":`))
	err = decodeJSON(httptest.NewRecorder(), req, &v)
	assert.Equal(t, apierror.CodeBadRequest, apierror.CodeOf(err))
}
