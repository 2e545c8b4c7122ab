// Package gologger resolves the glog logger every meetsync component
// shares and bridges it onto go-job's contracts, so scheduled sync runs
// and queue workers log through the same provider as the core service.
package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultComponent names the logger when a caller does not pick one.
const DefaultComponent = "meetsync"

// Resolve picks a logger with deterministic precedence: a named logger
// from the provider wins, then the direct logger, then a nop fallback.
// An empty component name resolves under DefaultComponent.
func Resolve(component string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(componentName(component), provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the component logger, then returns the go-job
// bridges alongside it. The reconciliation queue adapters take the last
// two values; the service keeps the first two.
func ResolveForJob(
	component string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(component, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}

func componentName(component string) string {
	component = strings.TrimSpace(component)
	if component == "" {
		return DefaultComponent
	}
	return component
}
