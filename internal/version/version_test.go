package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T12:00:00Z", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-05-01 12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"unknown", time.Time{}},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseTime(tt.in)))
		})
	}
}

func TestLinkedValuesWin(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, GitCommit, BuildTime = "v1.2.3", "0123456789abcdef", "2024-05-01T12:00:00Z"
	info := GetBuildInfo()

	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "namesake v1.2.3 (0123456)", info.String())
	assert.Contains(t, info.Detailed(), "Commit: 0123456789abcdef")
	assert.Contains(t, info.Detailed(), "Built: 2024-05-01T12:00:00Z")
	assert.NotEmpty(t, info.Platform)
}

func TestDevBuild(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "dev", "unknown"
	info := &BuildInfo{Version: "dev", GitCommit: "unknown", GoVersion: "go1.24", Platform: "linux/amd64"}
	assert.Equal(t, "namesake dev", info.String())
	assert.NotContains(t, info.Detailed(), "Commit:")
	assert.NotEmpty(t, GetVersion())
}
