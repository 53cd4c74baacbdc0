package respond

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/servicedesk-be/internal/logs"
)

func TestErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, http.StatusForbidden, "forbidden")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":403,"message":"forbidden"}`, rr.Body.String())
}

func TestJSONEnvelopeWithData(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, "ok", map[string]int{"n": 1})
	assert.JSONEq(t, `{"code":200,"message":"ok","data":{"n":1}}`, rr.Body.String())
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	cases := map[string]struct {
		body    string
		wantErr bool
	}{
		"valid":          {body: `{"name":"ana"}`},
		"empty":          {body: ``, wantErr: true},
		"unknown field":  {body: `{"name":"ana","admin":true}`, wantErr: true},
		"trailing value": {body: `{"name":"ana"}{"name":"bob"}`, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var p payload
			err := Decode(httptest.NewRecorder(), req, &p)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ana", p.Name)
		})
	}
}

func TestEncodeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(logs.New(logs.Options{Format: "json", Output: &buf}))
	t.Cleanup(func() { SetLogger(logs.Discard()) })

	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, "ok", make(chan int))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, buf.String(), "encode payload failed")
	assert.Contains(t, buf.String(), `"status":200`)
}
