// Package server exposes the reconstruction engine over a socket as a
// newline-delimited text-JSON protocol: one request object per line, one
// response object per line.
package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/HazelnutParadise/Go-Utils/conv"
	json "github.com/goccy/go-json"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/recon"
)

// Request is one wire request. Params carries command-specific fields.
type Request struct {
	Command string         `json:"Command"`
	Auth    string         `json:"Auth,omitempty"`
	Job     int            `json:"Job,omitempty"`
	Params  map[string]any `json:"Params,omitempty"`
}

// Response is one wire response.
type Response struct {
	Job    *int   `json:"Job,omitempty"`
	Result any    `json:"Result,omitempty"`
	Status string `json:"Status,omitempty"`
	Cancel bool   `json:"Cancel,omitempty"`
}

// Server bridges wire requests onto a reconstruction queue. Wire job
// numbers are small integers mapped to the queue's internal ids.
type Server struct {
	queue *recon.Queue
	auth  string

	mu      sync.Mutex
	byWire  map[int]string
	nextJob int
}

// New creates a server over the given queue. A non-empty auth token is
// required from every client request.
func New(queue *recon.Queue, auth string) *Server {
	return &Server{queue: queue, auth: auth, byWire: make(map[int]string), nextJob: 1}
}

// Serve accepts connections until the listener closes.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		var resp Response
		if err := json.Unmarshal(line, &req); err != nil {
			resp = Response{Status: "bad request: " + err.Error()}
		} else {
			resp = s.Dispatch(&req)
		}
		if err := enc.Encode(resp); err != nil {
			bayra.LogWarning("server.handle: encode failed: %v", err)
			return
		}
	}
}

// Dispatch executes one request and produces its response.
func (s *Server) Dispatch(req *Request) Response {
	if s.auth != "" && req.Auth != s.auth {
		return Response{Status: "unauthorised"}
	}
	switch req.Command {
	case "Recon":
		return s.submit(req, recon.Joint)
	case "Pogit":
		// Pogit is a joint reconstruction whose output is read as the
		// ancestor rows of the output graph; the job runs the same way.
		return s.submit(req, recon.Joint)
	case "Place":
		return s.submit(req, recon.Marginal)
	case "Status":
		return s.status(req)
	case "Cancel":
		return s.cancel(req)
	case "Output":
		return s.output(req)
	case "Fake":
		return s.fake()
	default:
		return Response{Status: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

// reconRequest decodes the command params shared by the job-submitting
// commands.
func reconRequest(params map[string]any, mode recon.Mode) (recon.Request, error) {
	req := recon.Request{Mode: mode}
	req.Tree = conv.ToString(params["Tree"])
	req.Model = conv.ToString(params["Model"])
	if req.Tree == "" {
		return req, fmt.Errorf("missing Tree")
	}
	if req.Model == "" {
		return req, fmt.Errorf("missing Model")
	}
	rawAln, ok := params["Alignment"].(map[string]any)
	if !ok {
		return req, fmt.Errorf("missing Alignment")
	}
	req.Alignment = make(map[string]string, len(rawAln))
	for name, seq := range rawAln {
		req.Alignment[name] = conv.ToString(seq)
	}
	if mode == recon.Marginal {
		req.BranchPointID = conv.ToString(params["BranchPoint"])
		if req.BranchPointID == "" {
			return req, fmt.Errorf("missing BranchPoint")
		}
	}
	if v, ok := params["IncludeGaps"].(bool); ok {
		req.IncludeGaps = v
	}
	if v, ok := params["Workers"]; ok {
		req.Workers = int(conv.ParseF64(v))
	}
	return req, nil
}

func (s *Server) submit(req *Request, mode recon.Mode) Response {
	rr, err := reconRequest(req.Params, mode)
	if err != nil {
		return Response{Status: err.Error()}
	}
	id := s.queue.Submit(rr)
	wire := s.assign(id)
	return Response{Job: &wire, Status: recon.Queued.String()}
}

func (s *Server) assign(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	wire := s.nextJob
	s.nextJob++
	s.byWire[wire] = id
	return wire
}

func (s *Server) resolve(wire int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byWire[wire]
	return id, ok
}

func (s *Server) status(req *Request) Response {
	id, ok := s.resolve(req.Job)
	if !ok {
		return Response{Status: fmt.Sprintf("unknown job %d", req.Job)}
	}
	if id == fakeJob {
		return Response{Job: &req.Job, Status: recon.Complete.String()}
	}
	state, err := s.queue.Status(id)
	if err != nil {
		return Response{Status: err.Error()}
	}
	return Response{Job: &req.Job, Status: state.String()}
}

func (s *Server) cancel(req *Request) Response {
	id, ok := s.resolve(req.Job)
	if !ok {
		return Response{Status: fmt.Sprintf("unknown job %d", req.Job)}
	}
	if err := s.queue.Cancel(id); err != nil {
		return Response{Status: err.Error()}
	}
	return Response{Job: &req.Job, Cancel: true}
}

func (s *Server) output(req *Request) Response {
	id, ok := s.resolve(req.Job)
	if !ok {
		return Response{Status: fmt.Sprintf("unknown job %d", req.Job)}
	}
	if id == fakeJob {
		return Response{Job: &req.Job, Result: map[string]any{}, Status: recon.Complete.String()}
	}
	res, err := s.queue.Output(id)
	if err != nil {
		return Response{Job: &req.Job, Status: err.Error()}
	}
	out := map[string]any{"Ancestors": res.Ancestors}
	if len(res.Marginals) > 0 {
		probs := make([][]float64, len(res.Marginals))
		for i, m := range res.Marginals {
			probs[i] = m.P()
		}
		out["Marginals"] = probs
	}
	return Response{Job: &req.Job, Result: out, Status: recon.Complete.String()}
}

// fakeJob marks synthetic job entries created by the Fake command.
const fakeJob = ""

// fake answers with a synthetic, instantly complete job; clients use it to
// exercise their polling loop without spending compute.
func (s *Server) fake() Response {
	wire := s.assign(fakeJob)
	return Response{Job: &wire, Status: recon.Complete.String()}
}
