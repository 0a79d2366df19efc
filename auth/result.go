package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// HandlerArgs is what a wrapped handler receives: the original request
// plus the resolved auth context.
type HandlerArgs struct {
	Request *http.Request
	Auth    *Context
}

// HandlerFunc is a caller-supplied handler invoked by the wrapped loader
// form. Errors it returns propagate unmodified to the caller.
type HandlerFunc func(args HandlerArgs) (HandlerResult, error)

// HandlerResult is the tagged union of values a handler may return:
// plain data, a raw HTTP response, data with pre-split response init, or
// a redirect. The loader normalizes each variant into a body/headers/
// status triple before merging auth data.
type HandlerResult interface {
	isHandlerResult()
}

// DataResult is a plain value; the auth fields are shallow-merged into it
// and the session's headers become the response init.
type DataResult struct {
	Value any
}

// RawResult is a raw HTTP response produced by the handler. Redirects
// pass through unmodified; other responses gain the session cookie and,
// when the body is JSON, the auth fields.
type RawResult struct {
	Response *http.Response
}

// InitResult is data with response headers and status already split out.
type InitResult struct {
	Value  any
	Header http.Header
	Status int
}

// RedirectResult short-circuits to a redirect; auth headers are never
// merged onto it.
type RedirectResult struct {
	URL    string
	Status int
}

func (DataResult) isHandlerResult()     {}
func (RawResult) isHandlerResult()      {}
func (InitResult) isHandlerResult()     {}
func (RedirectResult) isHandlerResult() {}

// Data wraps a plain handler value.
func Data(value any) DataResult {
	return DataResult{Value: value}
}

// Raw wraps a raw HTTP response.
func Raw(resp *http.Response) RawResult {
	return RawResult{Response: resp}
}

// DataWithInit wraps a value with explicit response headers and status.
func DataWithInit(value any, header http.Header, status int) InitResult {
	return InitResult{Value: value, Header: header, Status: status}
}

// Redirect short-circuits the loader with a 302 to url.
func Redirect(url string) RedirectResult {
	return RedirectResult{URL: url, Status: http.StatusFound}
}

// mergeResult overlays the auth context and session headers onto a
// handler result. Precedence rules:
//
//  1. Redirect results pass through unmodified.
//  2. Raw responses: redirects pass through; otherwise the session's
//     Set-Cookie is appended (never clobbering existing cookies) and JSON
//     bodies are shallow-merged with the auth fields, auth winning on
//     collision. Non-JSON bodies are untouched.
//  3. Init results: headers are unioned multi-value-safe, data merged as
//     in 2.
//  4. Plain data: auth fields merged in, session headers attached.
func mergeResult(result HandlerResult, authCtx *Context, sessionHeaders http.Header) (*Outcome, error) {
	switch r := result.(type) {
	case RedirectResult:
		status := r.Status
		if status < 300 || status > 399 {
			status = http.StatusFound
		}
		return &Outcome{
			Kind:     OutcomeRedirect,
			Status:   status,
			Header:   make(http.Header),
			Location: r.URL,
		}, nil

	case RawResult:
		return mergeRawResponse(r.Response, authCtx, sessionHeaders)

	case InitResult:
		header := cloneHeader(r.Header)
		dropFramingHeaders(header)
		unionHeaders(header, sessionHeaders)
		status := r.Status
		if status == 0 {
			status = http.StatusOK
		}
		body, err := marshalMerged(r.Value, authCtx)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Kind:   OutcomeContinue,
			Status: status,
			Header: header,
			Body:   body,
		}, nil

	case DataResult:
		body, err := marshalMerged(r.Value, authCtx)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Kind:   OutcomeContinue,
			Status: http.StatusOK,
			Header: cloneHeader(sessionHeaders),
			Body:   body,
		}, nil

	case nil:
		return ContinueOutcome(authCtx.MergeFields(), sessionHeaders)

	default:
		return nil, errors.Errorf("[mergeResult] unsupported handler result %T", result)
	}
}

func mergeRawResponse(resp *http.Response, authCtx *Context, sessionHeaders http.Header) (*Outcome, error) {
	if resp == nil {
		return nil, errors.New("[mergeRawResponse] nil response")
	}

	// Redirect-class responses propagate unmodified; the auth subsystem
	// never decorates a redirect.
	if resp.StatusCode >= 300 && resp.StatusCode <= 399 {
		return &Outcome{
			Kind:     OutcomeRedirect,
			Status:   resp.StatusCode,
			Header:   cloneHeader(resp.Header),
			Location: resp.Header.Get("Location"),
		}, nil
	}

	// The body is re-emitted (and possibly rewritten) below, so any
	// framing the upstream response carried no longer describes it.
	header := cloneHeader(resp.Header)
	dropFramingHeaders(header)
	for _, cookie := range sessionHeaders.Values("Set-Cookie") {
		header.Add("Set-Cookie", cookie)
	}

	var body []byte
	if resp.Body != nil {
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "[mergeRawResponse] read body")
		}
		body = raw
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		merged, ok := mergeAuthIntoJSON(body, authCtx)
		if ok {
			body = merged
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &Outcome{
		Kind:   OutcomeContinue,
		Status: status,
		Header: header,
		Body:   body,
	}, nil
}

// marshalMerged serializes a handler value with the auth fields shallow-
// merged in. Values that do not serialize to a JSON object (arrays,
// scalars) are passed through unchanged; identity overlays only apply to
// objects.
func marshalMerged(value any, authCtx *Context) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "[marshalMerged] marshal handler value")
	}
	if merged, ok := mergeAuthIntoJSON(raw, authCtx); ok {
		return merged, nil
	}
	return raw, nil
}

// mergeAuthIntoJSON shallow-merges the auth fields into a JSON object
// body. Auth fields win on key collision: the auth subsystem's view of
// identity is authoritative. Returns ok=false when the body is not a
// JSON object.
func mergeAuthIntoJSON(body []byte, authCtx *Context) ([]byte, bool) {
	var object map[string]any
	if err := json.Unmarshal(body, &object); err != nil || object == nil {
		return nil, false
	}
	for key, value := range authCtx.MergeFields() {
		object[key] = value
	}
	merged, err := json.Marshal(object)
	if err != nil {
		return nil, false
	}
	return merged, true
}

// dropFramingHeaders removes length and transfer framing from a header
// about to front a re-serialized body; net/http recomputes them on write.
func dropFramingHeaders(h http.Header) {
	h.Del("Content-Length")
	h.Del("Transfer-Encoding")
}

// unionHeaders adds every value from src into dst, preserving dst's
// existing values. Multi-value headers (notably Set-Cookie) accumulate
// rather than clobber.
func unionHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func isJSONContentType(contentType string) bool {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return strings.EqualFold(mediaType, "application/json") ||
		strings.HasSuffix(strings.ToLower(mediaType), "+json")
}
