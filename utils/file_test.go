package utils

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err = zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err = f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetShpInZip(t *testing.T) {
	zipFile := writeTestZip(t, map[string]string{
		"wards/mumbai.shp": "shp-bytes",
		"wards/mumbai.dbf": "dbf-bytes",
		"wards/mumbai.cpg": "UTF-8\n",
	})
	dst := t.TempDir()
	shp, utf8, err := GetShpInZip(zipFile, dst)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(shp) != "mumbai.shp" || filepath.Dir(shp) != dst {
		t.Fatalf("shp = %s", shp)
	}
	if !utf8 {
		t.Fatal("cpg declared UTF-8")
	}
	// 随附文件平铺解出到同一目录
	if _, err = os.Stat(filepath.Join(dst, "mumbai.dbf")); err != nil {
		t.Fatal(err)
	}
}

// 大写后缀的shp套件（常见于Windows侧打包）同样要能识别
func TestGetShpInZipUpperCase(t *testing.T) {
	zipFile := writeTestZip(t, map[string]string{
		"MUMBAI.SHP": "shp-bytes",
		"MUMBAI.CPG": "UTF-8\n",
	})
	shp, utf8, err := GetShpInZip(zipFile, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(shp) != "MUMBAI.SHP" {
		t.Fatalf("shp = %s", shp)
	}
	if !utf8 {
		t.Fatal("cpg declared UTF-8")
	}
}

func TestGetShpInZipNoShp(t *testing.T) {
	zipFile := writeTestZip(t, map[string]string{"readme.txt": "x"})
	if _, _, err := GetShpInZip(zipFile, t.TempDir()); err != ErrNoShpInZip {
		t.Fatalf("got %v", err)
	}
}

func TestSuffixFold(t *testing.T) {
	if !HasSuffixFold("MUMBAI.SHP", FILE_EXT_SHP) || !HasSuffixFold("mumbai.shp", FILE_EXT_SHP) {
		t.Fatal("suffix match should ignore case")
	}
	if HasSuffixFold("mumbai.dbf", FILE_EXT_SHP) || HasSuffixFold("hp", FILE_EXT_SHP) {
		t.Fatal("mismatched suffix accepted")
	}
	if got := TrimSuffixFold("MUMBAI.SHP", FILE_EXT_SHP); got != "MUMBAI" {
		t.Fatalf("got %s", got)
	}
	if got := TrimSuffixFold("mumbai.dbf", FILE_EXT_SHP); got != "mumbai.dbf" {
		t.Fatalf("got %s", got)
	}
}

func TestSidecarPath(t *testing.T) {
	dir := t.TempDir()
	lower := filepath.Join(dir, "wards.cpg")
	if err := os.WriteFile(lower, []byte("UTF-8"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := SidecarPath(filepath.Join(dir, "wards.shp"), FILE_EXT_SHP, FILE_EXT_CPG); got != lower {
		t.Fatalf("got %s", got)
	}
	// 大写套件回退到大写侧车
	upper := filepath.Join(dir, "WARDS.CPG")
	if err := os.WriteFile(upper, []byte("UTF-8"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := SidecarPath(filepath.Join(dir, "WARDS.SHP"), FILE_EXT_SHP, FILE_EXT_CPG); got != upper {
		t.Fatalf("got %s", got)
	}
	// 两种形式都缺失时返回小写候选，由调用方判空
	missing := filepath.Join(dir, "other.shp")
	if got := SidecarPath(missing, FILE_EXT_SHP, FILE_EXT_CPG); got != filepath.Join(dir, "other.cpg") {
		t.Fatalf("got %s", got)
	}
}

func TestIsUtf8Cpg(t *testing.T) {
	dir := t.TempDir()
	cpg := filepath.Join(dir, "a.cpg")
	if err := os.WriteFile(cpg, []byte(" utf-8 \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsUtf8Cpg(cpg) {
		t.Fatal("utf-8 cpg not recognized")
	}
	if err := os.WriteFile(cpg, []byte("ISO-8859-1"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsUtf8Cpg(cpg) {
		t.Fatal("latin1 cpg misread as utf-8")
	}
	if IsUtf8Cpg(filepath.Join(dir, "missing.cpg")) {
		t.Fatal("missing cpg should not be utf-8")
	}
}

func TestGetFilenameWithoutExt(t *testing.T) {
	if got := GetFilenameWithoutExt("/a/b/c.tif"); got != "c" {
		t.Fatalf("got %s", got)
	}
	if got := GetFilenameWithoutExt("noext"); got != "noext" {
		t.Fatalf("got %s", got)
	}
}

func TestGetUniqSubDir(t *testing.T) {
	parent := t.TempDir()
	d1, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Fatal("dirs should be unique")
	}
	if info, err := os.Stat(d1); err != nil || !info.IsDir() {
		t.Fatal("dir not created")
	}
}
