// Package web embeds the static status page served by the monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"
)

// devModeEnv switches the monitor to serving the page sources straight
// from disk, so edits show up without recompiling.
const devModeEnv = "GROVERLAB_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the file system the status page is served from: the
// embedded build, or the on-disk dist directory in development mode.
func GetAssets() http.FileSystem {
	if devMode() {
		return http.Dir(distOnDisk())
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func devMode() bool {
	value := strings.ToLower(os.Getenv(devModeEnv))
	return value == "true" || value == "1"
}

// distOnDisk locates the dist directory next to this source file.
func distOnDisk() string {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the web package source directory")
	}

	dir := path.Join(path.Dir(thisFile), "dist")
	fmt.Fprintf(os.Stderr, "Serving monitor assets from %s\n", dir)

	return dir
}
