package queue

import "testing"

func TestParseTarget(t *testing.T) {
	cases := []struct {
		input  string
		want   Target
		wantOK bool
	}{
		{"apk", TargetAPK, true},
		{"exe", TargetEXE, true},
		{"EXE", TargetEXE, true},
		{" apk ", TargetAPK, true},
		{"", DefaultTarget, true},
		{"dmg", "", false},
		{"zip", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseTarget(tc.input)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseTarget(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestTargetExtension(t *testing.T) {
	if got := TargetAPK.Extension(); got != ".apk" {
		t.Fatalf("unexpected extension %q", got)
	}
	if got := TargetEXE.Extension(); got != ".exe" {
		t.Fatalf("unexpected extension %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("Processing"); !ok || status != StatusProcessing {
		t.Fatalf("ParseStatus(Processing) = (%q, %v)", status, ok)
	}
	if _, ok := ParseStatus("pending"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusQueued:     false,
		StatusProcessing: false,
		StatusDone:       true,
		StatusError:      true,
	} {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
