package cdoc

import "testing"

func TestCreateEmptyAutoKeyHasInitialCommitHash(t *testing.T) {
	d := CreateEmpty(KeyAutoU64, 0)
	if d.keyU64 == 0 {
		t.Fatalf("expected a non-zero auto key")
	}
	if _, ok := d.CommitHash(); !ok {
		t.Fatalf("expected AUTOKEY document to carry a commit hash")
	}
}

func TestFromJSONRoundTripCompact(t *testing.T) {
	d, err := FromJSON([]byte(`{"a":1,"b":true,"c":null}`), KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	got, err := d.ToJSONCompact()
	if err != nil {
		t.Fatalf("ToJSONCompact: %v", err)
	}
	want := `{"a":1,"b":true,"c":null}`
	if got != want {
		t.Errorf("ToJSONCompact = %q, want %q", got, want)
	}
}

// TestReviseRoundTrip mirrors spec.md §8 scenario S5: create empty with
// AUTOKEY, insert {"n":10}, commit; revise and update n to 300, commit;
// expect to_json_compact == {"n":300} and a 2-long commit-hash chain (the
// hash changes on each commit). try_begin failing during an active revise
// is checked by TestTryBeginFailsWhileHeld.
func TestReviseRoundTrip(t *testing.T) {
	d := CreateEmpty(KeyAutoU64, 0)
	initialHash, _ := d.CommitHash()

	rev := Begin(d)
	rev.Root().Obj.Set("n", Value{Kind: KindUint16, U16: 10})
	if err := rev.End(0); err != nil {
		t.Fatalf("End (first commit): %v", err)
	}
	firstHash, _ := d.CommitHash()
	if firstHash == initialHash {
		t.Fatalf("expected commit hash to change after first commit")
	}

	rev2 := Begin(d)
	rev2.Root().Obj.Set("n", Value{Kind: KindUint16, U16: 300})
	if err := rev2.End(0); err != nil {
		t.Fatalf("End (second commit): %v", err)
	}
	secondHash, _ := d.CommitHash()
	if secondHash == firstHash {
		t.Fatalf("expected commit hash to change after second commit")
	}

	got, err := d.ToJSONCompact()
	if err != nil {
		t.Fatalf("ToJSONCompact: %v", err)
	}
	want := `{"n":300}`
	if got != want {
		t.Errorf("ToJSONCompact = %q, want %q", got, want)
	}
}

func TestTryBeginFailsWhileHeld(t *testing.T) {
	d := CreateEmpty(KeyAutoU64, 0)
	rev := Begin(d)
	if _, ok := TryBegin(d); ok {
		t.Fatalf("expected TryBegin to fail while a revision is active")
	}
	rev.Abort()
	rev2, ok := TryBegin(d)
	if !ok {
		t.Fatalf("expected TryBegin to succeed after Abort released the lock")
	}
	rev2.Abort()
}

func TestReviseAbortLeavesDocumentUnchanged(t *testing.T) {
	d, err := FromJSON([]byte(`{"n":1}`), KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	rev := Begin(d)
	rev.Root().Obj.Set("n", Value{Kind: KindUint8, U8: 99})
	rev.Abort()

	got, err := d.ToJSONCompact()
	if err != nil {
		t.Fatalf("ToJSONCompact: %v", err)
	}
	if want := `{"n":1}`; got != want {
		t.Errorf("ToJSONCompact after abort = %q, want %q", got, want)
	}
}

func TestNewColumnRejectsNullType(t *testing.T) {
	col, err := NewColumn(0, 0) // TypeNull is not a valid column type
	if err == nil {
		t.Fatalf("expected NewColumn to reject TypeNull, got %v", col)
	}
}

func TestEncodedSizeWidthComparison(t *testing.T) {
	small := Value{Kind: KindInt16, I16: 7}
	large := Value{Kind: KindInt32, I32: 7}
	if EncodedSize(large) <= EncodedSize(small) {
		t.Fatalf("expected int32 encoding to be wider than int16")
	}
}
