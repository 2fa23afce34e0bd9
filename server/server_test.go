package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HazelnutParadise/bayra/recon"
	"github.com/HazelnutParadise/bayra/subst"
)

func reconParams() map[string]any {
	return map[string]any{
		"Tree":  "((A:0.1,B:0.1)X:0.1,(C:0.1,D:0.1)Y:0.1)R;",
		"Model": subst.Yang,
		"Alignment": map[string]any{
			"A": "AC", "B": "AC", "C": "AC", "D": "AC",
		},
	}
}

func waitComplete(t *testing.T, s *Server, job int) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp := s.Dispatch(&Request{Command: "Status", Job: job})
		switch resp.Status {
		case recon.Complete.String():
			return
		case recon.Failed.String(), recon.Cancelled.String():
			t.Fatalf("job settled as %s", resp.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not complete in time")
}

func TestDispatchReconAndOutput(t *testing.T) {
	s := New(recon.NewQueue(2), "")

	resp := s.Dispatch(&Request{Command: "Recon", Params: reconParams()})
	require.NotNil(t, resp.Job)
	job := *resp.Job
	waitComplete(t, s, job)

	out := s.Dispatch(&Request{Command: "Output", Job: job})
	require.Equal(t, recon.Complete.String(), out.Status)
	result, ok := out.Result.(map[string]any)
	require.True(t, ok)
	ancestors, ok := result["Ancestors"].(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C"}, ancestors["R"])
}

func TestDispatchPlaceReturnsMarginals(t *testing.T) {
	s := New(recon.NewQueue(1), "")
	params := reconParams()
	params["BranchPoint"] = "X"

	resp := s.Dispatch(&Request{Command: "Place", Params: params})
	require.NotNil(t, resp.Job)
	waitComplete(t, s, *resp.Job)

	out := s.Dispatch(&Request{Command: "Output", Job: *resp.Job})
	result, ok := out.Result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, result, "Marginals")
}

func TestDispatchAuth(t *testing.T) {
	s := New(recon.NewQueue(1), "sesame")
	resp := s.Dispatch(&Request{Command: "Fake"})
	assert.Equal(t, "unauthorised", resp.Status)

	resp = s.Dispatch(&Request{Command: "Fake", Auth: "sesame"})
	require.NotNil(t, resp.Job)
	assert.Equal(t, recon.Complete.String(), resp.Status)
}

func TestDispatchUnknownCommandAndJob(t *testing.T) {
	s := New(recon.NewQueue(1), "")
	resp := s.Dispatch(&Request{Command: "Explode"})
	assert.Contains(t, resp.Status, "unknown command")

	resp = s.Dispatch(&Request{Command: "Status", Job: 99})
	assert.Contains(t, resp.Status, "unknown job")
}

func TestDispatchMissingParams(t *testing.T) {
	s := New(recon.NewQueue(1), "")
	resp := s.Dispatch(&Request{Command: "Recon", Params: map[string]any{"Model": subst.Yang}})
	assert.Contains(t, resp.Status, "missing Tree")

	params := reconParams()
	resp = s.Dispatch(&Request{Command: "Place", Params: params})
	assert.Contains(t, resp.Status, "missing BranchPoint")
}

func TestDispatchCancel(t *testing.T) {
	s := New(recon.NewQueue(1), "")
	resp := s.Dispatch(&Request{Command: "Recon", Params: reconParams()})
	require.NotNil(t, resp.Job)

	c := s.Dispatch(&Request{Command: "Cancel", Job: *resp.Job})
	assert.True(t, c.Cancel)
}

func TestServeOverSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := New(recon.NewQueue(1), "")
	go func() { _ = s.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	req, err := json.Marshal(Request{Command: "Fake"})
	require.NoError(t, err)
	_, err = conn.Write(append(req, '\n'))
	require.NoError(t, err)

	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan())
	var resp Response
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	require.NotNil(t, resp.Job)
	assert.Equal(t, recon.Complete.String(), resp.Status)
}
