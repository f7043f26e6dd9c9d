package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultRetryBackoff is how long a rate-limited request waits before it
// is reinserted at the head of the queue.
const DefaultRetryBackoff = 1000 * time.Millisecond

// pendingRequest is one queued call. It is created on dispatch and
// destroyed on terminal settlement; a rate-limited attempt keeps the same
// pendingRequest alive across retries so the call is never lost.
type pendingRequest struct {
	kind       OpKind
	method     string
	path       string
	query      url.Values
	body       []byte
	attempts   int
	enqueuedAt time.Time
	settle     chan settleResult
}

type settleResult struct {
	status int
	body   []byte
	err    error
}

// Dispatcher serializes all outbound calls to the expense API. Exactly
// one request is in flight at any time; the drain loop pulls from the
// head of the queue, paces each send, classifies failures, and requeues
// rate-limited requests at the head after a fixed backoff.
//
// Ordering: requests that are never rate-limited are served strict FIFO.
// A retried request regains priority over requests enqueued after it,
// but a request drained during the retry's backoff window is served
// first. Eventual delivery is favored over strict FIFO.
//
// Once enqueued, a request cannot be withdrawn; it always settles with a
// result or a terminal error.
type Dispatcher struct {
	httpClient  *http.Client
	baseURL     string
	token       func() string
	pacing      *PacingPolicy
	backoff     time.Duration
	onAuthError func()

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*pendingRequest
	closed bool
	done   chan struct{}
}

func newDispatcher(baseURL string, httpClient *http.Client, token func() string, pacing *PacingPolicy, backoff time.Duration, onAuthError func()) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if pacing == nil {
		pacing = NewPacingPolicy()
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	d := &Dispatcher{
		httpClient:  httpClient,
		baseURL:     baseURL,
		token:       token,
		pacing:      pacing,
		backoff:     backoff,
		onAuthError: onAuthError,
		done:        make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.drain()
	return d
}

// enqueue appends the request to the tail of the queue and blocks until
// it settles.
func (d *Dispatcher) enqueue(req *pendingRequest) settleResult {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return settleResult{err: ErrDispatcherClosed}
	}
	req.enqueuedAt = time.Now()
	req.settle = make(chan settleResult, 1)
	d.queue = append(d.queue, req)
	d.cond.Signal()
	d.mu.Unlock()

	return <-req.settle
}

// requeueFront reinserts a rate-limited request at the head of the queue
// so it regains priority over later arrivals.
func (d *Dispatcher) requeueFront(req *pendingRequest) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		req.settle <- settleResult{err: ErrDispatcherClosed}
		return
	}
	d.queue = append([]*pendingRequest{req}, d.queue...)
	d.cond.Signal()
	d.mu.Unlock()
}

// Close stops the drain loop. Requests still queued, and retries still in
// their backoff window, settle with ErrDispatcherClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
	<-d.done
}

// drain is the single drain loop. Because only this goroutine sends, at
// most one request is ever in flight.
func (d *Dispatcher) drain() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if d.closed {
			remaining := d.queue
			d.queue = nil
			d.mu.Unlock()
			for _, req := range remaining {
				req.settle <- settleResult{err: ErrDispatcherClosed}
			}
			return
		}
		req := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.pacing.BeforeSend(req.kind)
		res := d.attempt(req)

		if errors.Is(res.err, errRateLimited) {
			// Do not settle the caller; the request re-enters at the
			// head of the queue after the backoff while draining
			// continues with other queued items.
			req.attempts++
			time.AfterFunc(d.backoff, func() { d.requeueFront(req) })
			continue
		}
		req.settle <- res
	}
}

// attempt performs one HTTP send and classifies the outcome.
func (d *Dispatcher) attempt(req *pendingRequest) settleResult {
	target := d.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		bodyReader = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequest(req.method, target, bodyReader)
	if err != nil {
		return settleResult{err: &NetworkError{Err: err}}
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if d.token != nil {
		if tok := d.token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return settleResult{err: &NetworkError{Err: err}}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return settleResult{err: &NetworkError{Err: err}}
	}

	return d.classify(resp.StatusCode, respBody)
}

// classify maps one HTTP outcome onto the error taxonomy. This is the
// only place response shapes are inspected to decide behavior.
func (d *Dispatcher) classify(status int, body []byte) settleResult {
	if status >= 200 && status < 300 {
		return settleResult{status: status, body: body}
	}

	message, field := parseErrorBody(body, status)

	switch status {
	case http.StatusBadRequest:
		return settleResult{status: status, err: &ValidationError{Field: field, Message: message}}
	case http.StatusUnauthorized:
		if d.onAuthError != nil {
			d.onAuthError()
		}
		return settleResult{status: status, err: &AuthError{Message: message}}
	case http.StatusNotFound:
		return settleResult{status: status, err: &NotFoundError{Message: message}}
	case http.StatusTooManyRequests:
		return settleResult{status: status, err: errRateLimited}
	default:
		return settleResult{status: status, err: &ServerError{StatusCode: status, Message: message}}
	}
}

func parseErrorBody(body []byte, status int) (message, field string) {
	var payload struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error, payload.Field
	}
	return http.StatusText(status), ""
}
