package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSurrealDB_NotConnected(t *testing.T) {
	db := NewSurrealDB(Config{})
	ctx := context.Background()

	if _, err := db.Query(ctx, "RETURN 1", nil); !errors.Is(err, ErrConnection) {
		t.Errorf("Query() error = %v, want ErrConnection", err)
	}
	if err := db.Ping(ctx); !errors.Is(err, ErrConnection) {
		t.Errorf("Ping() error = %v, want ErrConnection", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestSurrealDB_ConnectStopsRetryingOnCancel(t *testing.T) {
	db := NewSurrealDB(Config{
		Host:           "127.0.0.1",
		Port:           "1",
		ConnectRetries: 3,
		RetryWait:      time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := db.Connect(ctx)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect() took %v, want it to stop at the context deadline", elapsed)
	}
}

func TestFirstRecord(t *testing.T) {
	record := map[string]interface{}{"id": "saxophone:a"}

	tests := []struct {
		name    string
		results []interface{}
		want    interface{}
		wantErr error
	}{
		{name: "no statements", results: nil, wantErr: ErrNotFound},
		{
			name:    "empty result set",
			results: []interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{}}},
			wantErr: ErrNotFound,
		},
		{
			name:    "nil result",
			results: []interface{}{map[string]interface{}{"status": "OK", "result": nil}},
			wantErr: ErrNotFound,
		},
		{
			name:    "first record",
			results: []interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{record, "other"}}},
			want:    record,
		},
		{
			name:    "scalar",
			results: []interface{}{map[string]interface{}{"status": "OK", "result": float64(3)}},
			want:    float64(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstRecord(tt.results)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FirstRecord() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if m, ok := tt.want.(map[string]interface{}); ok {
				gotMap, ok := got.(map[string]interface{})
				if !ok || gotMap["id"] != m["id"] {
					t.Errorf("FirstRecord() = %v, want %v", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("FirstRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}
