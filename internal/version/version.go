package version

import (
	"fmt"
	"os/exec"
	"strings"
)

var (
	// These will be set at build time via ldflags
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersion returns the version string with git information
func GetVersion() string {
	// If version was set at build time (release builds), use it
	if Version != "dev" {
		return Version
	}

	// Development build - get version from git
	return getVersionFromGit()
}

// GetFullVersion returns version with commit and build info
func GetFullVersion() string {
	version := GetVersion()

	if Commit != "unknown" && Date != "unknown" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, Commit, Date)
	}

	return version
}

// getVersionFromGit builds version string from git state
func getVersionFromGit() string {
	latestTag := getLatestTag()
	if latestTag == "" {
		latestTag = "v0.0.0"
	}

	currentCommit := getCurrentCommit()
	tagCommit := getTagCommit(latestTag)

	version := latestTag
	if currentCommit != tagCommit && len(currentCommit) >= 8 {
		version += "-rev-" + currentCommit[:8]
	}

	return version
}

func getLatestTag() string {
	cmd := exec.Command("git", "describe", "--tags", "--abbrev=0", "--match=v*")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func getCurrentCommit() string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

func getTagCommit(tag string) string {
	cmd := exec.Command("git", "rev-list", "-n", "1", tag)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// GetMCPVersion returns version for MCP server
func GetMCPVersion() string {
	return GetVersion()
}
