package gateway

import (
	"errors"
	"testing"
)

func TestParseFillReport(t *testing.T) {
	raw := []byte(`{"type":"FILL","account_id":"acc1","order_id":"ord1","symbol":"600000.SH","qty":100,"price":49.0,"fee":5.0,"event_time":1700000000000}`)
	r, err := ParseExecutionReport(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if r.Type != ReportFill || r.Qty != 100 || r.Price != 49.0 || r.Fee != 5.0 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.Timestamp().UnixMilli() != 1700000000000 {
		t.Fatalf("unexpected timestamp: %v", r.Timestamp())
	}
}

func TestParseCancelAndReject(t *testing.T) {
	r, err := ParseExecutionReport([]byte(`{"type":"CANCEL","account_id":"acc1","order_id":"ord1"}`))
	if err != nil || r.Type != ReportCancel {
		t.Fatalf("cancel parse failed: %+v err=%v", r, err)
	}
	r, err = ParseExecutionReport([]byte(`{"type":"REJECT","account_id":"acc1","order_id":"ord1","reason":"price limit"}`))
	if err != nil || r.Reason != "price limit" {
		t.Fatalf("reject parse failed: %+v err=%v", r, err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyMessage},
		{"bad json", "{not json", ErrBadReport},
		{"unknown type", `{"type":"NOPE","account_id":"a","order_id":"o"}`, ErrUnknownReport},
		{"fill without qty", `{"type":"FILL","account_id":"a","order_id":"o","price":10}`, ErrBadReport},
		{"missing ids", `{"type":"CANCEL"}`, ErrBadReport},
	}
	for _, tc := range cases {
		if _, err := ParseExecutionReport([]byte(tc.raw)); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTimestampFallback(t *testing.T) {
	r := ExecutionReport{}
	if r.Timestamp().IsZero() {
		t.Fatalf("expected fallback to now")
	}
}
