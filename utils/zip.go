package utils

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
)

// 解压zip包到指定目录（忽略内部子目录结构），返回解出的文件列表
func Unzip(zipFile, dstDir string) (files []string, err error) {
	zr, err := zip.OpenReader(zipFile)
	if err != nil {
		return
	}
	defer zr.Close()
	var (
		rc  io.ReadCloser
		out *os.File
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// shp及其随附文件需位于同一目录，故取Base平铺
		path := filepath.Join(dstDir, filepath.Base(f.Name))
		if rc, err = f.Open(); err != nil {
			return
		}
		if out, err = os.Create(path); err != nil {
			rc.Close()
			return
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return
		}
		files = append(files, path)
	}
	return
}
