/**
 * @description
 * This package decides what a principal may see and do on the transaction
 * ledger. It has two jobs: producing the scope filter that narrows every read
 * query before it hits the database, and authorizing individual mutations
 * against a record's tab owner and uploader.
 *
 * Role semantics:
 * - admin: unrestricted reads and writes.
 * - shared: read-broad, write-narrow. Sees every tab's data but may only
 *   mutate records it uploaded or records in tabs it owns.
 * - limited: reads restricted to rows it uploaded; mutations additionally
 *   require being the uploader or the tab owner.
 *
 * A deny here surfaces as an authorization failure at the API layer, never as
 * a silently empty result. The only fail-closed empty result in the system is
 * the missing-tab_id guard in the ledger service.
 */

package access

import "github.com/finbook/ledger-service/internal/domain"

// Action is the kind of ledger operation being authorized.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Scope is the additional predicate applied to every ledger read. A zero
// UploadedBy means the principal sees all rows in the tab.
type Scope struct {
	UploadedBy string
}

// Restricted reports whether the scope narrows query results at all.
func (s Scope) Restricted() bool {
	return s.UploadedBy != ""
}

// ScopeFor returns the read scope for a principal. Only the limited role is
// row-restricted; admin and shared read everything.
func ScopeFor(p domain.Principal) Scope {
	if p.Role == domain.RoleLimited {
		return Scope{UploadedBy: p.Username}
	}
	return Scope{}
}

// Authorize decides whether a principal may perform an action on a record
// belonging to the given tab owner and uploaded by the given user.
func Authorize(p domain.Principal, tabOwner, uploader string, action Action) bool {
	if p.Role == domain.RoleAdmin {
		return true
	}

	switch action {
	case ActionRead:
		if p.Role == domain.RoleShared {
			return true
		}
		return uploader == p.Username
	case ActionWrite, ActionDelete:
		return uploader == p.Username || tabOwner == p.Username
	}
	return false
}
