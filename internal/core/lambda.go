package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaProxyHandler adapts h to API Gateway REST proxy events so the same
// router serves both the HTTP listener and Lambda.
type LambdaProxyHandler struct {
	handler http.Handler
}

// NewLambdaProxyHandler wraps h for use with lambda.Start.
func NewLambdaProxyHandler(h http.Handler) *LambdaProxyHandler {
	return &LambdaProxyHandler{handler: h}
}

// Handle converts the event to an http.Request, serves it and converts the
// recorded response back. Errors are only returned for events that cannot be
// turned into a request at all.
func (l *LambdaProxyHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := newRequestFromEvent(ctx, event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	rw := newLambdaResponseWriter()
	l.handler.ServeHTTP(rw, req)
	return rw.proxyResponse(), nil
}

func newRequestFromEvent(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 body: %w", err)
		}
		body = decoded
	}

	u := url.URL{Path: event.Path}
	query := url.Values{}
	for k, vs := range event.MultiValueQueryStringParameters {
		query[k] = append([]string(nil), vs...)
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	req.RemoteAddr = event.RequestContext.Identity.SourceIP
	if req.Header.Get("X-Request-Id") == "" && event.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestContext.RequestID)
	}
	return req, nil
}

// lambdaResponseWriter buffers a response for conversion to a proxy event.
type lambdaResponseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newLambdaResponseWriter() *lambdaResponseWriter {
	return &lambdaResponseWriter{header: http.Header{}}
}

func (w *lambdaResponseWriter) Header() http.Header { return w.header }

func (w *lambdaResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *lambdaResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *lambdaResponseWriter) proxyResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	single := make(map[string]string, len(w.header))
	for k, vs := range w.header {
		single[k] = strings.Join(vs, ", ")
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           single,
		MultiValueHeaders: w.header,
		Body:              w.body.String(),
	}
}
