package host

import "testing"

func TestInvoke(t *testing.T) {
	var got []string
	ev := Event{Type: "click", Data: "payload"}

	tests := []struct {
		name    string
		handler any
		want    bool
	}{
		{"event func", func(e Event) { got = append(got, e.Type) }, true},
		{"data func", func(d any) { got = append(got, d.(string)) }, true},
		{"plain func", func() { got = append(got, "plain") }, true},
		{"unsupported", func(int) {}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ok := Invoke(tt.handler, ev); ok != tt.want {
				t.Errorf("Invoke() = %v, want %v", ok, tt.want)
			}
		})
	}

	want := []string{"click", "payload", "plain"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}
