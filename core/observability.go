package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Operation names used for the structured log line and the metric pair
// every service entry point emits.
const (
	opGetAccessToken = "get_valid_access_token"
	opSyncTasks      = "sync_tasks"
	opPushTaskEvent  = "push_task_event"
	opDisconnect     = "disconnect"
)

const metricNamespace = "meetsync"

// syncTagKeys are the context fields promoted to metric tags. Everything
// else (counters, event ids, errors) stays log-only to keep metric
// cardinality bounded.
var syncTagKeys = []string{"provider", "user_id", "task_id", "action"}

// observeSyncOperation emits one log line and one counter/histogram pair
// for a finished operation. Fields pass through redaction first; token
// material never reaches the logger or the metrics recorder.
func (s *Service) observeSyncOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt)

	contextFields := RedactSensitiveMap(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	s.recordOperationMetrics(ctx, operation, status, elapsed, contextFields)

	if err != nil {
		s.logError(ctx, operation+" failed", contextFields)
		return
	}
	s.logInfo(ctx, operation+" succeeded", contextFields)
}

func (s *Service) recordOperationMetrics(
	ctx context.Context,
	operation string,
	status string,
	elapsed time.Duration,
	fields map[string]any,
) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range syncTagKeys {
		value, ok := fields[key].(string)
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			tags[key] = value
		}
	}

	prefix := metricNamespace + "." + operation
	s.metricsRecorder.IncCounter(ctx, prefix+".total", 1, cloneTags(tags))
	s.metricsRecorder.ObserveHistogram(ctx, prefix+".duration_ms", float64(elapsed.Milliseconds()), cloneTags(tags))
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "info", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "error", message, fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
