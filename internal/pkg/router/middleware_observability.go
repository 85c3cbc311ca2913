package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - w.body.Len(); room > 0 && !w.capped {
		if len(p) > room {
			w.body.Write(p[:room])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	} else if len(p) > 0 {
		w.capped = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// SetError lets the error encoder attach the handler error to the span.
func (w *statusRecorder) SetError(err error) {
	w.err = err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts the
// bytes back so the handler still sees the full stream.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	if len(head) > maxLoggedBodyBytes {
		return head[:maxLoggedBodyBytes]
	}
	return head
}

func describeBody(contentType string, body []byte, capped bool, m *instrument.Masker) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	var doc any
	switch {
	case json.Unmarshal(body, &doc) == nil:
		out = m.Value(doc)
	case strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded"):
		if values, err := url.ParseQuery(string(body)); err == nil {
			out = m.Value(map[string][]string(values))
		} else {
			out = string(body)
		}
	case !utf8.Valid(body):
		out = "<binary body omitted>"
	default:
		out = string(body)
	}

	if capped {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

type observer struct {
	masker   *instrument.Masker
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	limited  metric.Int64Counter
}

func newObserver(cfg config.Config, ins instrument.Instrumentation) *observer {
	if ins == nil {
		ins = instrument.NewNoop()
	}
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}

	log := instrument.Log(instrument.CategoryHTTP)
	meter := ins.Meter("http.server")
	o := &observer{masker: instrument.NewMasker(fields), tracer: ins.Tracer("http.server")}

	var err error
	if o.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		log.Error("failed to create http request counter", "error", err)
	}
	if o.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		log.Error("failed to create http duration histogram", "error", err)
	}
	if o.limited, err = meter.Int64Counter("http.server.rate_limited",
		metric.WithDescription("Requests rejected with 429 by the limiter or an OTP quota")); err != nil {
		log.Error("failed to create rate limited counter", "error", err)
	}

	return o
}

func (o *observer) record(ctx context.Context, status int, elapsed time.Duration, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if o.requests != nil {
		o.requests.Add(ctx, 1, opt)
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(elapsed.Milliseconds()), opt)
	}
	if o.limited != nil && status == http.StatusTooManyRequests {
		o.limited.Add(ctx, 1, opt)
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := newObserver(cfg, ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			meta := routeMetaOf(r.Method, route)
			log := instrument.Log(meta.category)
			ip := clientIP(r)
			start := time.Now()

			ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddressKey.String(ip),
				),
			)
			defer span.End()

			reqBody := peekBody(r)
			log.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"ip", ip,
				"headers", o.masker.Headers(r.Header),
				"body", describeBody(r.Header.Get("Content-Type"), reqBody, false, o.masker),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.String("log.category", string(meta.category)),
			}
			o.record(ctx, status, elapsed, attrs)

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				semconv.UserAgentOriginalKey.String(r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)
			if remaining := rec.Header().Get(HeaderRateLimitRemaining); remaining != "" {
				span.SetAttributes(attribute.String("ratelimit.remaining", remaining))
			}
			if rec.err != nil {
				span.RecordError(rec.err)
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
				msg := http.StatusText(status)
				if rec.err != nil {
					msg = rec.err.Error()
				}
				span.SetStatus(codes.Error, msg)
			case status == http.StatusTooManyRequests:
				level = slog.LevelWarn
				span.SetStatus(codes.Ok, "")
			default:
				span.SetStatus(codes.Ok, "")
			}

			log.Log(ctx, level, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"error", rec.err,
				"body", describeBody(rec.Header().Get("Content-Type"), rec.body.Bytes(), rec.capped, o.masker),
			)
		})
	}
}
