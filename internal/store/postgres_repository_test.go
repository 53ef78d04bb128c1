package store

import (
	"testing"
	"time"
)

func TestBuildTransactionFilter(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     ListQuery
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "tab only",
			query:     ListQuery{TabID: 7},
			wantWhere: "tab_id = $1",
			wantArgs:  1,
		},
		{
			name:      "tab with uploader scope",
			query:     ListQuery{TabID: 7, UploadedBy: "alice"},
			wantWhere: "tab_id = $1 AND uploaded_by = $2",
			wantArgs:  2,
		},
		{
			name:      "tab with month",
			query:     ListQuery{TabID: 7, MonthYear: "2024-03"},
			wantWhere: "tab_id = $1 AND month_year = $2",
			wantArgs:  2,
		},
		{
			name:      "tab with date range",
			query:     ListQuery{TabID: 7, From: from, To: to},
			wantWhere: "tab_id = $1 AND transaction_date >= $2 AND transaction_date <= $3",
			wantArgs:  3,
		},
		{
			name:      "fully populated",
			query:     ListQuery{TabID: 7, UploadedBy: "alice", MonthYear: "2024-03", From: from, To: to},
			wantWhere: "tab_id = $1 AND uploaded_by = $2 AND month_year = $3 AND transaction_date >= $4 AND transaction_date <= $5",
			wantArgs:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTransactionFilter(tt.query)
			if where != tt.wantWhere {
				t.Fatalf("expected where %q, got %q", tt.wantWhere, where)
			}
			if len(args) != tt.wantArgs {
				t.Fatalf("expected %d args, got %d", tt.wantArgs, len(args))
			}
			if args[0] != tt.query.TabID {
				t.Fatalf("expected first arg to be tab id %d, got %v", tt.query.TabID, args[0])
			}
		})
	}
}
