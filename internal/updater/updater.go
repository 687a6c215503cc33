package updater

import (
	"archive/tar"
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/vBaggio/qronis/internal/version"
)

const (
	githubAPIURL   = "https://api.github.com/repos/%s/%s/releases/latest"
	executableBase = "qronis"
)

// GitHubRelease is the subset of the release payload the updater needs.
type GitHubRelease struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// SelfUpdate replaces the running binary with the latest GitHub release,
// if one is newer than the current version. Dev builds never update.
func SelfUpdate(owner, repo string) error {
	currentVersion := version.Version
	if currentVersion == "dev" {
		return nil
	}

	latestTag, downloadURL, err := CheckForUpdates(owner, repo)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if latestTag == "" || downloadURL == "" {
		return nil
	}
	if compareVersions(currentVersion, latestTag) >= 0 {
		return nil
	}

	log.Printf("updater: new version %s available (current %s), downloading", latestTag, currentVersion)

	executablePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := downloadAndReplace(downloadURL, executablePath); err != nil {
		return fmt.Errorf("failed to download and replace: %w", err)
	}

	log.Printf("updater: updated to %s, restart the application to use it", latestTag)
	return nil
}

// CheckForUpdates returns the latest release tag and the download URL of
// the asset matching the current OS/arch, or empty strings when no
// suitable asset exists.
func CheckForUpdates(owner, repo string) (string, string, error) {
	resp, err := http.Get(fmt.Sprintf(githubAPIURL, owner, repo))
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", fmt.Errorf("failed to decode release JSON: %w", err)
	}

	var suffix string
	platform := fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
	switch runtime.GOOS {
	case "windows":
		suffix = platform + ".zip"
	case "linux", "darwin":
		suffix = platform + ".tar.xz"
	default:
		return "", "", fmt.Errorf("unsupported platform for self-update: %s", platform)
	}

	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, suffix) && strings.Contains(asset.Name, executableBase) {
			return release.TagName, asset.BrowserDownloadURL, nil
		}
	}
	return "", "", fmt.Errorf("no suitable asset found for %s", platform)
}

func downloadAndReplace(downloadURL, executablePath string) error {
	tmpDir, err := os.MkdirTemp("", "qronis-update-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archiveName := filepath.Base(downloadURL)
	archivePath := filepath.Join(tmpDir, archiveName)

	resp, err := http.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download update archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive download returned status %d", resp.StatusCode)
	}

	outFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}
	if _, err := io.Copy(outFile, resp.Body); err != nil {
		outFile.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	outFile.Close()

	var extracted string
	switch {
	case strings.HasSuffix(archiveName, ".tar.xz"):
		extracted, err = extractTarXz(archivePath, tmpDir, executablePath)
	case strings.HasSuffix(archiveName, ".zip"):
		extracted, err = extractZip(archivePath, tmpDir, executablePath)
	default:
		return fmt.Errorf("unsupported archive format: %s", archiveName)
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", archiveName, err)
	}

	return replaceExecutable(executablePath, extracted)
}

func extractTarXz(archivePath, destDir, executablePath string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return "", err
	}

	wantName := strings.TrimSuffix(filepath.Base(executablePath), ".exe")
	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != wantName {
			continue
		}

		outPath := filepath.Join(destDir, wantName)
		out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, header.FileInfo().Mode())
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, tarReader); err != nil {
			out.Close()
			return "", err
		}
		out.Close()
		return outPath, nil
	}
	return "", fmt.Errorf("executable %q not found in archive", wantName)
}

func extractZip(archivePath, destDir, executablePath string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	wantName := filepath.Base(executablePath)
	if runtime.GOOS == "windows" && !strings.HasSuffix(wantName, ".exe") {
		wantName += ".exe"
	}

	for _, f := range r.File {
		if filepath.Base(f.Name) != wantName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}

		outPath := filepath.Join(destDir, wantName)
		out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
		if err != nil {
			rc.Close()
			return "", err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return "", err
		}
		return outPath, nil
	}
	return "", fmt.Errorf("executable %q not found in archive", wantName)
}

// replaceExecutable swaps the running binary for the new one. The old
// binary is kept next to it as ".old" until the swap succeeds; on Windows
// the running process keeps the file locked, so the backup lingers until
// the next start.
func replaceExecutable(oldPath, newPath string) error {
	backupPath := oldPath + ".old"
	if err := os.Rename(oldPath, backupPath); err != nil {
		return fmt.Errorf("failed to move current executable aside (close the app and retry on Windows): %w", err)
	}

	if err := os.Rename(newPath, oldPath); err != nil {
		os.Rename(backupPath, oldPath) // best-effort rollback
		return fmt.Errorf("failed to move new executable into place: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(oldPath, 0755); err != nil {
			return fmt.Errorf("failed to set execute permissions: %w", err)
		}
		os.Remove(backupPath)
	}
	return nil
}

// compareVersions numerically compares dotted version strings, ignoring a
// leading "v". Returns -1, 0 or 1.
func compareVersions(a, b string) int {
	aParts := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bParts := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(aParts) {
			av, _ = strconv.Atoi(aParts[i])
		}
		if i < len(bParts) {
			bv, _ = strconv.Atoi(bParts[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
