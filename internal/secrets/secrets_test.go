// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		dirs  []string
		want  map[string]string
	}{
		{
			name: "alfresco credentials are trimmed",
			files: map[string]string{
				AlfrescoUsername: "  ci-bot  \n",
				AlfrescoPassword: "s3cret\n",
			},
			want: map[string]string{AlfrescoUsername: "ci-bot", AlfrescoPassword: "s3cret"},
		},
		{
			name: "blank files are dropped",
			files: map[string]string{
				AlfrescoUsername: "ci-bot",
				AlfrescoPassword: " \n\t",
			},
			want: map[string]string{AlfrescoUsername: "ci-bot"},
		},
		{
			name: "dotfiles and folders are ignored",
			files: map[string]string{
				".gitkeep":       "",
				".old-password":  "hunter2",
				AlfrescoPassword: "pw",
			},
			dirs: []string{"archive"},
			want: map[string]string{AlfrescoPassword: "pw"},
		},
		{
			name: "empty directory",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			for _, d := range tt.dirs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
			}

			got, err := Load(dir, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingDir(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), ".secrets"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, AlfrescoUsername, "ci-bot")
	locked := filepath.Join(dir, AlfrescoPassword)
	require.NoError(t, os.WriteFile(locked, []byte("pw"), 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	got, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{AlfrescoUsername: "ci-bot"}, got)

	_, _, ok := Alfresco(got)
	assert.False(t, ok)
}

func TestAlfresco(t *testing.T) {
	user, pass, ok := Alfresco(map[string]string{AlfrescoUsername: "ci-bot", AlfrescoPassword: "pw"})
	assert.True(t, ok)
	assert.Equal(t, "ci-bot", user)
	assert.Equal(t, "pw", pass)

	_, _, ok = Alfresco(map[string]string{AlfrescoUsername: "ci-bot"})
	assert.False(t, ok)
	_, _, ok = Alfresco(nil)
	assert.False(t, ok)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
