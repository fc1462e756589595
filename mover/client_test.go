package mover

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

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operations/list", r.URL.Path)
		_ = json.NewEncoder(w).Encode(listResponse{List: []ListEntry{
			{Path: "a.txt", Name: "a.txt", Size: 10},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	entries, err := c.List(context.Background(), "src:", "", true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)
}

func TestClient_CopyFileAndAwaitJob(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/operations/copyfile":
			_ = json.NewEncoder(w).Encode(copyFileResponse{JobID: 42})
		case "/job/status":
			calls++
			finished := calls >= 2
			progress := float64(calls) * 50
			var success *bool
			if finished {
				s := true
				success = &s
			}
			_ = json.NewEncoder(w).Encode(JobStatusResult{Finished: finished, Success: success, Progress: &progress})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	jobID, err := c.CopyFile(context.Background(), CopyFileOptions{SrcFs: "a:", SrcRemote: "x", DstFs: "b:", DstRemote: "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), jobID)

	var progressSeen []float64
	err = c.AwaitJob(context.Background(), jobID, func(p float64) { progressSeen = append(progressSeen, p) })
	require.NoError(t, err)
	assert.NotEmpty(t, progressSeen)
}

func TestClient_JobStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failed := false
		_ = json.NewEncoder(w).Encode(JobStatusResult{Finished: true, Success: &failed, Error: "boom"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.AwaitJob(context.Background(), 1, nil)
	assert.Error(t, err)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.List(context.Background(), "src:", "", true)
	assert.Error(t, err)
}
