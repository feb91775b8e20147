package pwexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/schema"
)

type staticSource struct {
	meta schema.ProjectMeta
	err  error
}

func (s staticSource) Load() (schema.ProjectMeta, error) { return s.meta, s.err }

func project() schema.ProjectMeta {
	m := schema.DefaultMeta("shop")
	m.Suites = []schema.TestSuite{{
		Name:  "Login",
		Cases: []schema.TestCase{{Name: "ok"}},
	}}
	return m
}

func TestBrowserFor(t *testing.T) {
	tests := []struct {
		target, browser, channel string
		ok                       bool
	}{
		{"chromium", "chromium", "", true},
		{"firefox", "firefox", "", true},
		{"webkit", "webkit", "", true},
		{"chrome", "chromium", "chrome", true},
		{"msedge", "chromium", "msedge", true},
		{"ie", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			b, c, ok := browserFor(tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.browser, b)
			assert.Equal(t, tt.channel, c)
			assert.Equal(t, tt.ok, SupportsTarget(tt.target))
		})
	}
}

// Every rejection below happens before the driver starts.
func TestRunRejectsBeforeLaunch(t *testing.T) {
	tests := []struct {
		name string
		src  staticSource
		req  models.RunRequest
		want error
	}{
		{"unsupported", staticSource{meta: project()}, models.RunRequest{Suite: "Login", Target: "ie"}, connectors.ErrUnsupportedTarget},
		{"unknown suite", staticSource{meta: project()}, models.RunRequest{Suite: "Nope", Target: "firefox"}, schema.ErrNotFound},
		{"unknown case", staticSource{meta: project()}, models.RunRequest{Suite: "Login", Case: "nope", Target: "webkit"}, schema.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(t.TempDir(), tt.src, Config{}, nil)
			_, err := e.Run(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	e := New(t.TempDir(), staticSource{err: errors.New("broken")}, Config{}, nil)
	_, err := e.Run(context.Background(), models.RunRequest{Suite: "Login", Target: "chromium"})
	assert.ErrorContains(t, err, "broken")
	assert.Equal(t, "playwright", e.Name())
}
