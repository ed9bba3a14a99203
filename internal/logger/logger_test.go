package logger

import "testing"

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		json  bool
		debug bool
	}{
		{name: "console info"},
		{name: "json debug", json: true, debug: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.json, tc.debug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if log == nil {
				t.Fatal("expected a logger")
			}
		})
	}
}
