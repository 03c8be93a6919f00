package telemetry

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelOperation = "operation"
)

// MaxLabelValueLength caps label values to keep profile cardinality bounded
const MaxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles
var highCardinalityLabels = map[string]bool{
	"owner_id":   true,
	"user_id":    true,
	"request_id": true,
	"order_id":   true,
	"payment_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with pprof labels attached, so CPU and
// allocation samples taken inside fn can be filtered by them in Pyroscope.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels labels a named ledger operation
func OperationLabels(service, operation string) map[string]string {
	return map[string]string{ProfilingLabelOperation: service + "." + operation}
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long
// values and returns key/value pairs sorted by key.
func sanitizeLabels(labels map[string]string) []string {
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}

	keys := make([]string, 0, len(clean))
	for k := range clean {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, clean[key])
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_], mapping spaces
// and dashes to underscores.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
