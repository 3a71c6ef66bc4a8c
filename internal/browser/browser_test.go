package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		link     string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"linux https", "linux", "https://a.example/u", "xdg-open", []string{"https://a.example/u"}, false},
		{"darwin mailto", "darwin", "mailto:u@a.example", "open", []string{"mailto:u@a.example"}, false},
		{"windows", "windows", "http://a.example", "rundll32", []string{"url.dll,FileProtocolHandler", "http://a.example"}, false},
		{"file scheme refused", "linux", "file:///etc/passwd", "", nil, true},
		{"javascript refused", "linux", "javascript:alert(1)", "", nil, true},
		{"no scheme refused", "linux", "a.example/u", "", nil, true},
		{"unknown platform", "plan9", "https://a.example", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := command(tt.goos, tt.link)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOpenURL(t *testing.T) {
	var gotName string
	var gotArgs []string
	o := &Opener{goos: "linux", start: func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}}
	require.NoError(t, o.OpenURL("https://a.example/u"))
	assert.Equal(t, "xdg-open", gotName)
	assert.Equal(t, []string{"https://a.example/u"}, gotArgs)

	o.start = func(string, ...string) error { return errors.New("not found") }
	assert.Error(t, o.OpenURL("https://a.example/u"))
}
