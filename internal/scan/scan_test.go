package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanShows_FindsNFOSorted(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "Breaking Bad", "tvshow.nfo"))
	touch(t, filepath.Join(root, "Andor", "tvshow.nfo"))
	touch(t, filepath.Join(root, "Andor", "Season 1", "episode.nfo"))
	touch(t, filepath.Join(root, "Andor", "folder.jpg"))

	got, err := ScanShows(root, "tvshow.nfo", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个 NFO，实际 %d：%+v", len(got), got)
	}
	if got[0].RelPath != filepath.Join("Andor", "tvshow.nfo") || got[1].RelPath != filepath.Join("Breaking Bad", "tvshow.nfo") {
		t.Fatalf("顺序不符合预期：%q %q", got[0].RelPath, got[1].RelPath)
	}
	if got[0].Dir != filepath.Join(root, "Andor") {
		t.Fatalf("dir 不一致：%q", got[0].Dir)
	}
}

func TestScanShows_ExcludeDirsAndHidden(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "temp", "tvshow.nfo"))
	touch(t, filepath.Join(root, ".trash", "tvshow.nfo"))
	touch(t, filepath.Join(root, "ok", "tvshow.nfo"))

	got, err := ScanShows(root, "tvshow.nfo", []string{"temp", " "})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个 NFO，实际 %d：%+v", len(got), got)
	}
	if got[0].RelPath != filepath.Join("ok", "tvshow.nfo") {
		t.Fatalf("期望 rel=ok/tvshow.nfo，实际=%q", got[0].RelPath)
	}
}

func TestScanShows_NameCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "X", "TVShow.NFO"))

	got, err := ScanShows(root, "tvshow.nfo", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个 NFO，实际 %d", len(got))
	}
}

func TestScanShows_MissingRoot(t *testing.T) {
	if _, err := ScanShows(filepath.Join(t.TempDir(), "nope"), "tvshow.nfo", nil); err == nil {
		t.Fatalf("root 不存在时期望错误")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
