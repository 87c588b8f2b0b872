package dockerexec

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"traceval/internal/domain/eval"
)

const classpathDirName = ".classpath"

type fileSpec struct {
	Name string
	Mode int64
	Data []byte
}

// stageFiles collects everything a run needs inside the container: the
// working directory's top-level files plus each classpath entry, staged
// under .classpath/<index>. It returns the archive to copy in and the
// container-side classpath string handed to the runtime command.
func stageFiles(containerWorkdir, hostWorkdir string, hostClasspath []string) (io.Reader, string, error) {
	files, err := readDirFiles(hostWorkdir, "")
	if err != nil {
		return nil, "", err
	}

	containerPaths := make([]string, 0, len(hostClasspath))
	for i, entry := range hostClasspath {
		prefix := path.Join(classpathDirName, strconv.Itoa(i))
		entryFiles, err := readClasspathEntry(entry, prefix)
		if err != nil {
			return nil, "", err
		}
		files = append(files, entryFiles...)
		containerPaths = append(containerPaths, path.Join(containerWorkdir, prefix))
	}

	classpath := strings.Join(containerPaths, ":")
	if len(files) == 0 {
		return nil, classpath, nil
	}

	archive, err := makeArchive(files)
	if err != nil {
		return nil, "", err
	}

	return archive, classpath, nil
}

func readDirFiles(dir, prefix string) ([]fileSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &eval.IOError{Op: "stage run files", Path: dir, Err: err}
	}

	var files []fileSpec
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, &eval.IOError{Op: "stage run files", Path: filepath.Join(dir, entry.Name()), Err: err}
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, &eval.IOError{Op: "stage run files", Path: filepath.Join(dir, entry.Name()), Err: err}
		}
		files = append(files, fileSpec{
			Name: path.Join(prefix, entry.Name()),
			Mode: int64(info.Mode().Perm()),
			Data: data,
		})
	}

	return files, nil
}

// readClasspathEntry stages one host classpath entry. A missing entry stages
// nothing but keeps its container path: the classpath is an opaque list and
// resolving it is the runtime command's concern, same as on the host.
func readClasspathEntry(entry, prefix string) ([]fileSpec, error) {
	info, err := os.Stat(entry)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &eval.IOError{Op: "stage classpath entry", Path: entry, Err: err}
	}

	if info.IsDir() {
		return readDirFiles(entry, prefix)
	}

	data, err := os.ReadFile(entry)
	if err != nil {
		return nil, &eval.IOError{Op: "stage classpath entry", Path: entry, Err: err}
	}

	return []fileSpec{{
		Name: path.Join(prefix, filepath.Base(entry)),
		Mode: int64(info.Mode().Perm()),
		Data: data,
	}}, nil
}

func makeArchive(files []fileSpec) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	now := time.Now()
	for _, dir := range parentDirs(files) {
		header := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     dir + "/",
			Mode:     0o755,
			ModTime:  now,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write tar header: %w", err)
		}
	}

	for _, file := range files {
		mode := file.Mode
		if mode == 0 {
			mode = 0o644
		}

		header := &tar.Header{
			Name:    file.Name,
			Mode:    mode,
			Size:    int64(len(file.Data)),
			ModTime: now,
		}

		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write tar header: %w", err)
		}

		if _, err := tw.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write tar contents: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar writer: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func parentDirs(files []fileSpec) []string {
	seen := make(map[string]struct{})
	var dirs []string
	for _, file := range files {
		for dir := path.Dir(file.Name); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if _, ok := seen[dir]; ok {
				break
			}
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}
