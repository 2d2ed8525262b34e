package duelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Protocol operation paths under the base URL.
const (
	opGetMatch     = "get-match"
	opAccept       = "accept"
	opBeginMatch   = "begin-match"
	opReportMatch  = "report-match"
	opReportItems  = "report-items"
	defaultTimeout = 20 * time.Second
)

// BaseRequest carries the fields every protocol operation sends.
type BaseRequest struct {
	VerificationCode string
	MatchCode        string
	RSN              string
}

// Client executes the five matchmaking operations. It holds no mutable state
// between calls and is safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
		log:  log,
	}
}

// GetMatch fetches the current state of a match. It is the only operation
// that does not carry an authentication token.
func (c *Client) GetMatch(ctx context.Context, req BaseRequest) Result {
	return c.post(ctx, opGetMatch, req, basePayload(req))
}

// Accept joins the local participant into the match.
func (c *Client) Accept(ctx context.Context, req BaseRequest, token string) Result {
	payload := basePayload(req)
	payload["authentication_token"] = token
	return c.post(ctx, opAccept, req, payload)
}

// BeginMatch signals that the local participant is ready to fight.
func (c *Client) BeginMatch(ctx context.Context, req BaseRequest, token string) Result {
	payload := basePayload(req)
	payload["authentication_token"] = token
	return c.post(ctx, opBeginMatch, req, payload)
}

// ReportResult reports the match outcome, naming the participant that died.
func (c *Client) ReportResult(ctx context.Context, req BaseRequest, token, deadRSN string) Result {
	payload := basePayload(req)
	payload["authentication_token"] = token
	payload["osrs_rsn_death"] = deadRSN
	return c.post(ctx, opReportMatch, req, payload)
}

// ReportItems uploads the local participant's inventory and equipped gear as
// raw JSON blobs.
func (c *Client) ReportItems(ctx context.Context, req BaseRequest, token string, inventory, gear json.RawMessage) Result {
	payload := basePayload(req)
	payload["authentication_token"] = token
	payload["player_inventory"] = inventory
	payload["player_gear"] = gear
	return c.post(ctx, opReportItems, req, payload)
}

func basePayload(req BaseRequest) map[string]any {
	return map[string]any{
		"verification_code": req.VerificationCode,
		"match_code":        req.MatchCode,
		"osrs_rsn":          req.RSN,
	}
}

// post executes one operation and normalizes the response. Transport errors
// surface as a failed Result carrying the error text, never as a Go error:
// the engine treats the next poll as the retry mechanism.
func (c *Client) post(ctx context.Context, op string, req BaseRequest, payload map[string]any) Result {
	reqID := uuid.NewString()
	log := c.log.With(zap.String("op", op), zap.String("req_id", reqID), zap.String("match", req.MatchCode))

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+op, bytes.NewReader(body))
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		log.Debug("transport error", zap.Error(err))
		return Result{OK: false, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug("body read error", zap.Error(err))
		return Result{OK: false, Message: err.Error()}
	}

	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300
	res := normalize(httpOK, raw)
	if res.Session != nil {
		if res.Session.MatchCode == "" {
			res.Session.MatchCode = req.MatchCode
		}
		res.Session.Resolve(req.RSN)
	}
	log.Debug("response",
		zap.Int("status", resp.StatusCode),
		zap.Bool("ok", res.OK),
		zap.Bool("token_refresh", res.TokenRefresh),
		zap.Bool("session", res.Session != nil),
	)
	return res
}
