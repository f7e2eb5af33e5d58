package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	electionledger "election/contexts/election/election-ledger"
	"election/contexts/election/election-ledger/domain/services"
	electionhttp "election/contexts/election/election-ledger/transport/http"

	"github.com/swaggo/swag"
)

const (
	testDeployer = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	testVoterA   = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
	testVoterB   = "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db"
)

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := electionledger.NewInMemoryModule(
		services.AdminPolicy{Mode: services.AdminModeOwner, Deployer: testDeployer},
		1,
		nil,
		logger,
	)
	return New(module, logger, ":0")
}

func doRequest(server *Server, method string, path string, caller string, key string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, rr.Body.String())
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	var resp electionhttp.ErrorResponse
	decodeInto(t, rr, &resp)
	if resp.Code != code {
		t.Fatalf("expected error code %q, got %q", code, resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/healthz", "", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAddCandidateRequiresAdmin(t *testing.T) {
	server := newTestServer()

	rr := doRequest(server, http.MethodPost, "/v1/election/candidates", "", "", `{"name":"Alice"}`)
	expectError(t, rr, http.StatusBadRequest, "invalid_address")

	rr = doRequest(server, http.MethodPost, "/v1/election/candidates", testVoterA, "", `{"name":"Alice"}`)
	expectError(t, rr, http.StatusForbidden, "unauthorized")

	rr = doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":"   "}`)
	expectError(t, rr, http.StatusBadRequest, "invalid_input")

	rr = doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":`)
	expectError(t, rr, http.StatusBadRequest, "invalid_json")

	rr = doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":"Alice"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp electionhttp.CandidateMutationResponse
	decodeInto(t, rr, &resp)
	if resp.Candidate.ID != 1 || resp.Candidate.Name != "Alice" || !resp.Candidate.Exists || resp.EventPosition != 1 {
		t.Fatalf("unexpected add response: %+v", resp)
	}
}

func TestIdempotencyKeyReplaysMutation(t *testing.T) {
	server := newTestServer()

	first := doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "add-1", `{"name":"Alice"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", first.Code, first.Body.String())
	}
	second := doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "add-1", `{"name":"Alice"}`)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d body=%s", second.Code, second.Body.String())
	}
	var resp electionhttp.CandidateMutationResponse
	decodeInto(t, second, &resp)
	if !resp.Replayed || resp.Candidate.ID != 1 {
		t.Fatalf("unexpected replay response: %+v", resp)
	}

	conflict := doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "add-1", `{"name":"Bob"}`)
	expectError(t, conflict, http.StatusConflict, "idempotency_conflict")

	count := doRequest(server, http.MethodGet, "/v1/election/candidates/count", "", "", "")
	var countResp electionhttp.CandidatesCountResponse
	decodeInto(t, count, &countResp)
	if countResp.Count != 1 {
		t.Fatalf("expected count 1, got %d", countResp.Count)
	}
}

func TestVotingFlowStatusCodes(t *testing.T) {
	server := newTestServer()
	for _, name := range []string{"Candidate 1", "Candidate 2"} {
		rr := doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":"`+name+`"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("add %s failed: %d body=%s", name, rr.Code, rr.Body.String())
		}
	}

	rr := doRequest(server, http.MethodPost, "/v1/election/votes", testVoterA, "", `{"candidate_id":1}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var vote electionhttp.VoteResponse
	decodeInto(t, rr, &vote)
	if vote.CandidateID != 1 || vote.VoteCount != 1 || vote.Voter != testVoterA || vote.SessionID != 1 {
		t.Fatalf("unexpected vote response: %+v", vote)
	}

	rr = doRequest(server, http.MethodPost, "/v1/election/votes", testVoterB, "", `{"candidate_id":99}`)
	expectError(t, rr, http.StatusNotFound, "candidate_not_found")

	rr = doRequest(server, http.MethodPost, "/v1/election/votes", testVoterA, "", `{"candidate_id":2}`)
	expectError(t, rr, http.StatusConflict, "already_voted")

	rr = doRequest(server, http.MethodGet, "/v1/election/voters/"+strings.ToLower(testVoterA), "", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var voted electionhttp.HasVotedResponse
	decodeInto(t, rr, &voted)
	if !voted.HasVoted || !strings.EqualFold(voted.Address, testVoterA) {
		t.Fatalf("unexpected has voted response: %+v", voted)
	}

	rr = doRequest(server, http.MethodGet, "/v1/election/voters/not-an-address", "", "", "")
	expectError(t, rr, http.StatusBadRequest, "invalid_address")

	rr = doRequest(server, http.MethodDelete, "/v1/election/candidates/2", testVoterA, "", "")
	expectError(t, rr, http.StatusForbidden, "unauthorized")
	rr = doRequest(server, http.MethodDelete, "/v1/election/candidates/2", testDeployer, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on remove, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodGet, "/v1/election/candidates/2", "", "", "")
	var removed electionhttp.CandidateResponse
	decodeInto(t, rr, &removed)
	if removed.Exists {
		t.Fatalf("expected removed candidate to report exists=false")
	}
	rr = doRequest(server, http.MethodGet, "/v1/election/candidates/abc", "", "", "")
	expectError(t, rr, http.StatusBadRequest, "invalid_candidate_id")

	rr = doRequest(server, http.MethodPost, "/v1/election/sessions", testDeployer, "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on new session, got %d body=%s", rr.Code, rr.Body.String())
	}
	var session electionhttp.StartSessionResponse
	decodeInto(t, rr, &session)
	if session.SessionID != 2 {
		t.Fatalf("expected session 2, got %d", session.SessionID)
	}

	rr = doRequest(server, http.MethodGet, "/v1/election/results", "", "", "")
	var results electionhttp.ResultsResponse
	decodeInto(t, rr, &results)
	if results.SessionID != 2 || results.CandidatesCount != 2 || results.ActiveCandidates != 1 || results.TotalVotes != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}

	rr = doRequest(server, http.MethodGet, "/v1/election/candidates?active=true", "", "", "")
	var list electionhttp.CandidateListResponse
	decodeInto(t, rr, &list)
	if len(list.Items) != 1 || list.Items[0].ID != 1 {
		t.Fatalf("unexpected active list: %+v", list)
	}
	rr = doRequest(server, http.MethodGet, "/v1/election/candidates?active=maybe", "", "", "")
	expectError(t, rr, http.StatusBadRequest, "invalid_active_filter")
}

func TestListEventsPaging(t *testing.T) {
	server := newTestServer()
	for _, name := range []string{"A", "B", "C"} {
		doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":"`+name+`"}`)
	}

	rr := doRequest(server, http.MethodGet, "/v1/election/events?after=1&limit=1", "", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var page electionhttp.EventListResponse
	decodeInto(t, rr, &page)
	if len(page.Items) != 1 || page.Items[0].Position != 2 || page.Items[0].Type != "candidateAdded" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.LastPosition != 3 {
		t.Fatalf("expected last position 3, got %d", page.LastPosition)
	}
	if page.Items[0].Data["name"] != "B" {
		t.Fatalf("expected event data name B, got %v", page.Items[0].Data["name"])
	}

	rr = doRequest(server, http.MethodGet, "/v1/election/events?after=-1", "", "", "")
	expectError(t, rr, http.StatusBadRequest, "invalid_after")
	rr = doRequest(server, http.MethodGet, "/v1/election/events?limit=x", "", "", "")
	expectError(t, rr, http.StatusBadRequest, "invalid_limit")
}

func TestStreamEventsResumesFromLastEventID(t *testing.T) {
	server := newTestServer()
	for _, name := range []string{"A", "B"} {
		doRequest(server, http.MethodPost, "/v1/election/candidates", testDeployer, "", `{"name":"`+name+`"}`)
	}

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/election/events/stream?after=0", nil)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("Last-Event-ID", "1")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream content type, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream failed: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if lines[0] != "id: 2" {
		t.Fatalf("expected stream to resume at id 2, got %q", lines[0])
	}
	if lines[1] != "event: candidateAdded" {
		t.Fatalf("unexpected event line %q", lines[1])
	}
	var event electionhttp.EventResponse
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &event); err != nil {
		t.Fatalf("decode stream data failed: %v", err)
	}
	if event.Position != 2 || event.Data["name"] != "B" {
		t.Fatalf("unexpected streamed event: %+v", event)
	}
}

func TestSwaggerDocDescribesEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read swagger doc failed: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode swagger doc failed: %v", err)
	}

	routes := []struct {
		method string
		path   string
	}{
		{method: "get", path: "/healthz"},
		{method: "post", path: "/v1/election/candidates"},
		{method: "patch", path: "/v1/election/candidates/{candidate_id}"},
		{method: "delete", path: "/v1/election/candidates/{candidate_id}"},
		{method: "post", path: "/v1/election/sessions"},
		{method: "post", path: "/v1/election/votes"},
		{method: "get", path: "/v1/election/session"},
		{method: "get", path: "/v1/election/candidates"},
		{method: "get", path: "/v1/election/candidates/count"},
		{method: "get", path: "/v1/election/candidates/{candidate_id}"},
		{method: "get", path: "/v1/election/results"},
		{method: "get", path: "/v1/election/voters/{address}"},
		{method: "get", path: "/v1/election/events"},
		{method: "get", path: "/v1/election/events/stream"},
	}
	operations := 0
	for _, methods := range doc.Paths {
		operations += len(methods)
	}
	if operations != len(routes) {
		t.Fatalf("expected %d documented operations, got %d", len(routes), operations)
	}
	for _, route := range routes {
		if _, ok := doc.Paths[route.path][route.method]; !ok {
			t.Fatalf("expected %s %s in swagger doc", strings.ToUpper(route.method), route.path)
		}
	}
}
