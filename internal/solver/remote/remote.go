// Package remote implements the C12 remote solver gateway: it dials a
// solver pool member over HTTP/3 instead of spawning a local subprocess,
// for the multi-configuration driver's "race N configurations" mode,
// where each outer configuration may want a distinct (possibly remote)
// backend. The transport is a thin wrapper, grounded directly on the
// teacher's internal/runtime/netstack/http3.go HTTP3Client helper
// (http3.Transport plus a plain *http.Client); the wire payload is the
// same Script/Response values the subprocess adapter renders as text,
// here carried as JSON instead.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	http3 "github.com/quic-go/quic-go/http3"

	"github.com/synduce/synduce/internal/solver"
)

// Gateway is a SyGuS/SMT port backed by a remote solver pool reachable
// over HTTP/3. One Gateway instance multiplexes every call the adapter
// interfaces need; the remote pool member owns the actual incremental
// solver state per session id.
type Gateway struct {
	client    *http.Client
	baseURL   string
	sessionID string
}

// Dial connects to a solver gateway at addr ("quic://host:port"),
// opening one incremental SMT session server-side. insecure skips TLS
// verification, matching the teacher's WithInsecureMinTLS12 helper for
// local/dev pools; production pools are expected to present a verifiable
// certificate.
func Dial(ctx context.Context, addr string, timeout time.Duration, insecure bool) (*Gateway, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}

	tr := &http3.Transport{TLSClientConfig: tlsCfg}
	client := &http.Client{Transport: tr, Timeout: timeout}

	baseURL := "https://" + trimScheme(addr)

	g := &Gateway{client: client, baseURL: baseURL}

	sessID, err := g.openSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	g.sessionID = sessID

	return g, nil
}

func trimScheme(addr string) string {
	for _, prefix := range []string{"quic://", "https://", "http://"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return addr[len(prefix):]
		}
	}

	return addr
}

type openSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (g *Gateway) openSession(ctx context.Context) (string, error) {
	var resp openSessionResponse
	if err := g.post(ctx, "/session", nil, &resp); err != nil {
		return "", err
	}

	return resp.SessionID, nil
}

func (g *Gateway) post(ctx context.Context, path string, body, out interface{}) error {
	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, &buf)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Close releases the remote session. The underlying HTTP/3 transport is
// closed too, mirroring the teacher's ShutdownHTTP3 helper.
func (g *Gateway) Close() error {
	_ = g.post(context.Background(), "/session/"+g.sessionID+"/close", nil, nil)

	if tr, ok := g.client.Transport.(*http3.Transport); ok {
		return tr.Close()
	}

	return nil
}

// Solve implements solver.SyGuSSolver by POSTing the script as JSON and
// decoding the pool member's response.
func (g *Gateway) Solve(ctx context.Context, script solver.Script) (solver.Response, error) {
	var resp solver.Response

	path := fmt.Sprintf("/session/%s/sygus/solve", g.sessionID)
	if err := g.post(ctx, path, script, &resp); err != nil {
		return solver.Response{}, fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	return resp, nil
}

// smtCall is the minimal envelope every SMTSolver method sends: a
// command name plus its arguments, all carried as opaque JSON so the
// gateway's single endpoint stays stable as new SMTSolver methods are
// added.
type smtCall struct {
	Op       string   `json:"op"`
	Term     string   `json:"term,omitempty"`
	Name     string   `json:"name,omitempty"`
	ArgSorts []string `json:"arg_sorts,omitempty"`
	RetSort  string   `json:"ret_sort,omitempty"`
	Value    string   `json:"value,omitempty"`
	Logic    string   `json:"logic,omitempty"`
}

type smtCallResult struct {
	Sat   string       `json:"sat,omitempty"`
	Model solver.Model `json:"model,omitempty"`
}

func (g *Gateway) smt(ctx context.Context, call smtCall) (smtCallResult, error) {
	var out smtCallResult

	path := fmt.Sprintf("/session/%s/smt/call", g.sessionID)
	if err := g.post(ctx, path, call, &out); err != nil {
		return smtCallResult{}, fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	return out, nil
}

func (g *Gateway) Push(ctx context.Context) error {
	_, err := g.smt(ctx, smtCall{Op: "push"})
	return err
}

func (g *Gateway) Pop(ctx context.Context) error {
	_, err := g.smt(ctx, smtCall{Op: "pop"})
	return err
}

func (g *Gateway) Assert(ctx context.Context, smtlibTerm string) error {
	_, err := g.smt(ctx, smtCall{Op: "assert", Term: smtlibTerm})
	return err
}

func (g *Gateway) DeclareFun(ctx context.Context, name string, argSorts []string, retSort string) error {
	_, err := g.smt(ctx, smtCall{Op: "declare-fun", Name: name, ArgSorts: argSorts, RetSort: retSort})
	return err
}

func (g *Gateway) SetOption(ctx context.Context, name, value string) error {
	_, err := g.smt(ctx, smtCall{Op: "set-option", Name: name, Value: value})
	return err
}

func (g *Gateway) SetLogic(ctx context.Context, logic string) error {
	_, err := g.smt(ctx, smtCall{Op: "set-logic", Logic: logic})
	return err
}

func (g *Gateway) CheckSat(ctx context.Context) (solver.SatResult, error) {
	res, err := g.smt(ctx, smtCall{Op: "check-sat"})
	if err != nil {
		return solver.Unknown, err
	}

	switch res.Sat {
	case "sat":
		return solver.Sat, nil
	case "unsat":
		return solver.Unsat, nil
	default:
		return solver.Unknown, nil
	}
}

func (g *Gateway) GetModel(ctx context.Context) (solver.Model, error) {
	res, err := g.smt(ctx, smtCall{Op: "get-model"})
	if err != nil {
		return nil, err
	}

	return res.Model, nil
}
