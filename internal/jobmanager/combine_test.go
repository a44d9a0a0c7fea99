package jobmanager

import "testing"

func TestCombineForDisplay(t *testing.T) {
	m := &SlurmJobManager{}

	cases := []struct {
		raw  string
		want string
	}{
		{"RUNNING", "RUNNING"},
		{"RUNNING PENDING", "PENDING"},
		{"COMPLETED CANCELLED", "STOPPED"},
		{"COMPLETED STOPPED", "STOPPED"},
		{"FAILED RUNNING", "FAILED"},
		{"COMPLETING RUNNING", "RUNNING"},
	}
	for _, c := range cases {
		if got := m.CombineForDisplay(c.raw); got != c.want {
			t.Errorf("CombineForDisplay(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestCombineForStopping(t *testing.T) {
	m := &SlurmJobManager{}

	cases := []struct {
		raw  string
		want string
	}{
		{"COMPLETED COMPLETED", "STOPPED"},
		{"RUNNING PENDING", "PENDING"},
		{"COMPLETED CANCELLED", "STOPPED"},
		{"COMPLETING COMPLETED", "COMPLETING"},
		{"COMPLETED STOPPED", "STOPPED"},
	}
	for _, c := range cases {
		if got := m.CombineForStopping(c.raw); got != c.want {
			t.Errorf("CombineForStopping(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestIsStopped(t *testing.T) {
	m := &SlurmJobManager{}

	if !m.IsStopped(m.CombineForStopping("COMPLETED COMPLETED")) {
		t.Error("expected all-COMPLETED to be stopped")
	}
	if m.IsStopped(m.CombineForStopping("RUNNING PENDING")) {
		t.Error("expected RUNNING/PENDING mix to not be stopped")
	}
}

func TestParseSubmittedJobID(t *testing.T) {
	id, err := parseSubmittedJobID("Submitted batch job 4242")
	if err != nil || id != 4242 {
		t.Fatalf("got (%d, %v), want (4242, nil)", id, err)
	}

	id, err = parseSubmittedJobID("7777")
	if err != nil || id != 7777 {
		t.Fatalf("got (%d, %v), want (7777, nil)", id, err)
	}

	if _, err := parseSubmittedJobID("garbage output"); err == nil {
		t.Fatal("expected error for unparsable output")
	}
}
