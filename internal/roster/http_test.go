package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/trainees/search", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Kim Yuchan", r.Form.Get("name"))
		require.Equal(t, "20010101", r.Form.Get("birth"))
		json.NewEncoder(w).Encode(profileResponse{
			Found:  true,
			Member: Member{MemberCode: "12341234", UnitCode: "1111"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	p, err := c.GetProfile(context.Background(), "Kim Yuchan", "20010101")
	require.NoError(t, err)
	assert.True(t, p.ServerOn)
	require.NotNil(t, p.Member)
	assert.Equal(t, "12341234", p.Member.MemberCode)
	assert.Equal(t, "1111", p.Member.UnitCode)
}

func TestGetProfileNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(profileResponse{Found: false})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	p, err := c.GetProfile(context.Background(), "Nobody", "19990101")
	require.NoError(t, err)
	assert.True(t, p.ServerOn)
	assert.Nil(t, p.Member)
}

func TestServerErrorsAreFailSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)

	p, err := c.GetProfile(context.Background(), "Kim Yuchan", "20010101")
	require.NoError(t, err)
	assert.False(t, p.ServerOn)

	res, err := c.PostLetter(context.Background(), LetterPayload{}, time.Now())
	require.NoError(t, err)
	assert.False(t, res.ServerOn)
}

func TestUnreachableHostIsFailSoft(t *testing.T) {
	// Reserved TEST-NET address; nothing listens there.
	c := NewHTTPClient("http://192.0.2.1:9", 200*time.Millisecond)

	p, err := c.GetProfile(context.Background(), "Kim Yuchan", "20010101")
	require.NoError(t, err)
	assert.False(t, p.ServerOn)
}

func TestPostLetterStatuses(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)

	status = http.StatusCreated
	res, err := c.PostLetter(context.Background(), LetterPayload{Title: "hello"}, time.Now())
	require.NoError(t, err)
	assert.True(t, res.ServerOn)
	assert.True(t, res.Accepted)

	status = http.StatusUnprocessableEntity
	res, err = c.PostLetter(context.Background(), LetterPayload{Title: "hello"}, time.Now())
	require.NoError(t, err)
	assert.True(t, res.ServerOn)
	assert.False(t, res.Accepted)
}
