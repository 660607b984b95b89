package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"

	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

var (
	ErrNoShpInZip = errors.New("no shp in zip")
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 后缀匹配，忽略大小写（shp侧车文件后缀大小写不定）
func HasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// 去除后缀，忽略大小写
func TrimSuffixFold(s, suffix string) string {
	if HasSuffixFold(s, suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}

// 主文件旁的侧车文件路径，优先给定后缀，缺失时回退其大写形式
func SidecarPath(main, mainExt, sideExt string) string {
	prefix := TrimSuffixFold(main, mainExt)
	path := prefix + sideExt
	if _, err := os.Stat(path); err != nil {
		if upper := prefix + strings.ToUpper(sideExt); upper != path {
			if _, err = os.Stat(upper); err == nil {
				return upper
			}
		}
	}
	return path
}

// 从zip包中找出shp文件，并检测cpg声明的编码是否为UTF-8
func GetShpInZip(zipFile, dstDir string) (path string, utf8 bool, err error) {
	shpFiles, err := Unzip(zipFile, dstDir)
	if err != nil {
		return
	}
	for _, file := range shpFiles {
		if HasSuffixFold(file, FILE_EXT_SHP) {
			path = file
			continue
		}
		if HasSuffixFold(file, FILE_EXT_CPG) {
			utf8 = IsUtf8Cpg(file)
		}
	}
	if path == "" {
		err = ErrNoShpInZip
	}
	return
}

// cpg文件声明的编码是否为UTF-8，文件缺失或为空时视为否
func IsUtf8Cpg(cpgFile string) bool {
	enc, err := os.ReadFile(cpgFile)
	if err != nil || len(enc) == 0 {
		return false
	}
	encStr := strings.ToUpper(strings.TrimSpace(string(enc)))
	return encStr == UTF_8 || encStr == UTF8
}
