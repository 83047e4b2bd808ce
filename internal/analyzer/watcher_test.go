package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlci/hdlscan/internal/buildcfg"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	t.Run("ReanalyzesOnSourceChange", func(t *testing.T) {
		t.Parallel()
		root := verilogProject(t)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		results := make(chan *buildcfg.BuildConfig, 4)
		done := make(chan error, 1)
		go func() {
			done <- Watch(ctx, Options{Root: root}, func(cfg *buildcfg.BuildConfig, report *Report, err error) {
				if err == nil {
					results <- cfg
				}
			})
		}()

		// Give the watcher time to install before touching sources.
		time.Sleep(500 * time.Millisecond)
		writeFile(t, root, "rtl/spi.v", "module spi (input clk);\nendmodule\n")

		select {
		case cfg := <-results:
			assert.Equal(t, "soc_top", cfg.TopModule)
		case <-ctx.Done():
			t.Fatal("no re-analysis before timeout")
		}

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("IgnoresUnwatchedExtensions", func(t *testing.T) {
		t.Parallel()
		root := verilogProject(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		results := make(chan struct{}, 4)
		go func() {
			_ = Watch(ctx, Options{Root: root}, func(cfg *buildcfg.BuildConfig, report *Report, err error) {
				results <- struct{}{}
			})
		}()

		time.Sleep(500 * time.Millisecond)
		writeFile(t, root, "notes.txt", "not a source\n")

		select {
		case <-results:
			t.Fatal("re-analysis triggered by unwatched file")
		case <-time.After(3 * time.Second):
		}
	})

	t.Run("MissingRootFails", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := Watch(ctx, Options{Root: filepath.Join(t.TempDir(), "nope")}, nil)
		assert.Error(t, err)
	})
}

func TestDetectOrigin(t *testing.T) {
	t.Parallel()

	t.Run("NotARepo", func(t *testing.T) {
		assert.Equal(t, "", detectOrigin(t.TempDir()))
	})

	t.Run("RepoWithOrigin", func(t *testing.T) {
		root := t.TempDir()
		gitDir := filepath.Join(root, ".git")
		require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "objects"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"),
			[]byte("ref: refs/heads/main\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(`[core]
	repositoryformatversion = 0
[remote "origin"]
	url = https://github.com/example/soc.git
	fetch = +refs/heads/*:refs/remotes/origin/*
`), 0o644))

		assert.Equal(t, "https://github.com/example/soc.git", detectOrigin(root))
	})
}
