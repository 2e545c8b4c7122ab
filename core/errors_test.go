package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestTruncateDetail_Bounds(t *testing.T) {
	if got := TruncateDetail("  short detail  "); got != "short detail" {
		t.Fatalf("expected trimmed detail, got %q", got)
	}
	long := strings.Repeat("x", MaxProviderErrorDetail+100)
	got := TruncateDetail(long)
	if len(got) != MaxProviderErrorDetail {
		t.Fatalf("expected %d bytes, got %d", MaxProviderErrorDetail, len(got))
	}
}

func TestSyncErrorMapper_SniffsPlainErrors(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantCategory goerrors.Category
		wantTextCode string
	}{
		{
			name:         "unknown provider",
			err:          fmt.Errorf("%w: %q", ErrUnknownProvider, "jitsi"),
			wantCategory: goerrors.CategoryNotFound,
			wantTextCode: SyncErrorProviderNotFound,
		},
		{
			name:         "connection not found",
			err:          fmt.Errorf("sqlstore: %w for user", ErrConnectionNotFound),
			wantCategory: goerrors.CategoryAuth,
			wantTextCode: SyncErrorNotConnected,
		},
		{
			name:         "refresh failure",
			err:          stderrors.New("provider refresh rejected"),
			wantCategory: goerrors.CategoryAuth,
			wantTextCode: SyncErrorRefreshFailed,
		},
		{
			name:         "validation failure",
			err:          stderrors.New("core: user id is required"),
			wantCategory: goerrors.CategoryBadInput,
			wantTextCode: SyncErrorBadInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := syncErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.wantCategory {
				t.Fatalf("expected category %s, got %s", tc.wantCategory, mapped.Category)
			}
			if mapped.TextCode != tc.wantTextCode {
				t.Fatalf("expected text code %s, got %s", tc.wantTextCode, mapped.TextCode)
			}
			if mapped.Code == 0 {
				t.Fatalf("expected an HTTP status to be filled in")
			}
		})
	}
}

func TestSyncErrorMapper_PreservesRichErrors(t *testing.T) {
	original := goerrors.New("boom", goerrors.CategoryExternal)
	mapped := syncErrorMapper(original)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != SyncErrorProviderAPIFailed {
		t.Fatalf("expected %s, got %s", SyncErrorProviderAPIFailed, mapped.TextCode)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", mapped.Code)
	}
}

func TestErrorConstructors_NeverCarryTokens(t *testing.T) {
	err := RefreshFailedError(ProviderZoom, 401, strings.Repeat("body ", 100))
	if err.Code != http.StatusUnauthorized || err.TextCode != SyncErrorRefreshFailed {
		t.Fatalf("unexpected envelope: %#v", err)
	}
	detail, _ := err.Metadata["detail"].(string)
	if len(detail) > MaxProviderErrorDetail {
		t.Fatalf("expected bounded detail, got %d bytes", len(detail))
	}

	pushErr := PushFailedError(500, "calendar exploded")
	if pushErr.TextCode != SyncErrorPushFailed {
		t.Fatalf("unexpected push envelope: %#v", pushErr)
	}

	notConnected := NotConnectedError("u1", ProviderGoogle)
	if notConnected.Metadata["user_id"] != "u1" || notConnected.Metadata["provider"] != ProviderGoogle {
		t.Fatalf("expected traceability metadata: %#v", notConnected.Metadata)
	}
}
