package access

import (
	"testing"

	"github.com/finbook/ledger-service/internal/domain"
)

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name           string
		principal      domain.Principal
		wantRestricted bool
		wantUploadedBy string
	}{
		{
			name:      "admin is unrestricted",
			principal: domain.Principal{Username: "root", Role: domain.RoleAdmin},
		},
		{
			name:      "shared reads everything",
			principal: domain.Principal{Username: "dana", Role: domain.RoleShared},
		},
		{
			name:           "limited is restricted to own uploads",
			principal:      domain.Principal{Username: "alice", Role: domain.RoleLimited},
			wantRestricted: true,
			wantUploadedBy: "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := ScopeFor(tt.principal)
			if scope.Restricted() != tt.wantRestricted {
				t.Fatalf("expected restricted=%t, got %t", tt.wantRestricted, scope.Restricted())
			}
			if scope.UploadedBy != tt.wantUploadedBy {
				t.Fatalf("expected uploaded_by=%q, got %q", tt.wantUploadedBy, scope.UploadedBy)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	admin := domain.Principal{Username: "root", Role: domain.RoleAdmin}
	shared := domain.Principal{Username: "dana", Role: domain.RoleShared}
	limited := domain.Principal{Username: "alice", Role: domain.RoleLimited}

	tests := []struct {
		name      string
		principal domain.Principal
		tabOwner  string
		uploader  string
		action    Action
		want      bool
	}{
		{name: "admin deletes anything", principal: admin, tabOwner: "carol", uploader: "bob", action: ActionDelete, want: true},
		{name: "shared reads foreign rows", principal: shared, tabOwner: "carol", uploader: "bob", action: ActionRead, want: true},
		{name: "shared cannot delete foreign rows", principal: shared, tabOwner: "carol", uploader: "bob", action: ActionDelete, want: false},
		{name: "shared writes own uploads", principal: shared, tabOwner: "carol", uploader: "dana", action: ActionWrite, want: true},
		{name: "shared deletes in owned tab", principal: shared, tabOwner: "dana", uploader: "bob", action: ActionDelete, want: true},
		{name: "limited reads own uploads", principal: limited, tabOwner: "carol", uploader: "alice", action: ActionRead, want: true},
		{name: "limited cannot read foreign uploads", principal: limited, tabOwner: "carol", uploader: "bob", action: ActionRead, want: false},
		{name: "limited deletes own uploads", principal: limited, tabOwner: "carol", uploader: "alice", action: ActionDelete, want: true},
		{name: "limited deletes in owned tab", principal: limited, tabOwner: "alice", uploader: "bob", action: ActionDelete, want: true},
		{name: "limited cannot delete foreign rows", principal: limited, tabOwner: "carol", uploader: "bob", action: ActionDelete, want: false},
		{name: "unknown action denied", principal: shared, tabOwner: "dana", uploader: "dana", action: Action("export"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.principal, tt.tabOwner, tt.uploader, tt.action)
			if got != tt.want {
				t.Fatalf("expected allow=%t, got %t", tt.want, got)
			}
		})
	}
}
