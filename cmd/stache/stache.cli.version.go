package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// versionInfo holds version information
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

// versionSearchPaths are checked in order for a versions file.
var versionSearchPaths = []string{
	VersionsFileName,
	"../" + VersionsFileName,
	"../../" + VersionsFileName,
}

func newVersionCmd(cli *cliContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: VersionShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := getVersionInfo(versionSearchPaths)
			switch format {
			case OutputFormatText:
				fmt.Fprintf(cli.stdout, VersionTextTemplate+"\n",
					info.Version, info.Commit, info.Branch, info.BuildTime, info.GoVersion)
				return nil
			case OutputFormatJSON:
				return writeJSON(cli.stdout, info)
			default:
				return failf(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
			}
		},
	}

	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text, json")
	return cmd
}

// getVersionInfo reads the first decodable versions file among paths.
func getVersionInfo(paths []string) *versionInfo {
	info := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}

		if vy.Project.Version != "" {
			info.Version = vy.Project.Version
		}
		if vy.Git.Commit != "" {
			info.Commit = vy.Git.Commit
		}
		if vy.Git.Branch != "" {
			info.Branch = vy.Git.Branch
		}
		if vy.Build.Time != "" {
			info.BuildTime = vy.Build.Time
		}
		if vy.Build.GoVersion != "" {
			info.GoVersion = vy.Build.GoVersion
		}
		break
	}

	return info
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failf(ExitCodeError, ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
