package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "Hello, {{user}}!"
	testDataJSON        = `{"user": "Alice"}`
	testDataYAML        = "user: Bob\n"
	testExpectedOutput  = "Hello, Alice!"
	testFilePermissions = 0o600
)

// runCLI runs the CLI and returns the exit code with both streams.
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// writeTempFile creates a file with content in a fresh temp dir.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), testFilePermissions))
	return path
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
	assert.Contains(t, stdout, CmdNameStore)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "", "unknown")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, "unknown")
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "", CmdNameRender, "--no-such-flag")
	assert.Equal(t, ExitCodeUsageError, code)
}

// ==================== version ====================

func TestVersion(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameVersion)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, "stache version")
		assert.Contains(t, stdout, "Go:")
	})

	t.Run("json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)
		require.Equal(t, ExitCodeSuccess, code)

		var info versionInfo
		require.NoError(t, json.Unmarshal([]byte(stdout), &info))
		assert.NotEmpty(t, info.Version)
		assert.NotEmpty(t, info.GoVersion)
	})

	t.Run("invalid format", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameVersion, "--format", "xml")

		assert.Equal(t, ExitCodeUsageError, code)
		assert.Contains(t, stderr, ErrMsgInvalidFormat)
	})
}

func TestGetVersionInfo(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		info := getVersionInfo([]string{filepath.Join(t.TempDir(), VersionsFileName)})
		assert.Equal(t, VersionUnknown, info.Version)
		assert.Equal(t, VersionUnknown, info.Commit)
		assert.NotEmpty(t, info.GoVersion)
	})

	t.Run("reads versions file", func(t *testing.T) {
		path := writeTempFile(t, VersionsFileName, `project:
  name: go-stache
  version: 1.2.3
git:
  commit: abc123
  branch: main
build:
  time: "2026-01-01T00:00:00Z"
`)
		info := getVersionInfo([]string{"missing.yaml", path})
		assert.Equal(t, "1.2.3", info.Version)
		assert.Equal(t, "abc123", info.Commit)
		assert.Equal(t, "main", info.Branch)
		assert.Equal(t, "2026-01-01T00:00:00Z", info.BuildTime)
	})
}

// ==================== render ====================

func TestRender(t *testing.T) {
	templatePath := writeTempFile(t, "template.html", testTemplateContent)

	t.Run("inline json data", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", templatePath, "-d", testDataJSON)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, testExpectedOutput, stdout)
	})

	t.Run("yaml data file", func(t *testing.T) {
		dataPath := writeTempFile(t, "data.yaml", testDataYAML)
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", templatePath, "-f", dataPath)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hello, Bob!", stdout)
	})

	t.Run("template from stdin", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "{{if:ok}}yes{{/if:ok}}", CmdNameRender, "-t", "-", "-d", "ok: true")

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "yes", stdout)
	})

	t.Run("no data leaves tags", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", templatePath)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, testTemplateContent, stdout)
	})

	t.Run("strip removes leftovers", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", templatePath, "--strip")

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hello, !", stdout)
	})

	t.Run("base path", func(t *testing.T) {
		code, stdout, _ := runCLI(t, `<img src="a.png">`, CmdNameRender, "-t", "-", "--base-path", "/static/")

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, `<img src="/static/a.png">`, stdout)
	})

	t.Run("loop over rows", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "{{for:rows}}[{{v}}]{{/for:rows}}", CmdNameRender,
			"-t", "-", "-d", `{"rows": [{"v": 1}, {"v": 2}]}`)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "[1][2]", stdout)
	})

	t.Run("output file", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "out.html")
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", templatePath, "-d", testDataJSON, "-o", outPath)
		require.Equal(t, ExitCodeSuccess, code)
		assert.Empty(t, stdout)

		written, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Equal(t, testExpectedOutput, string(written))
	})

	t.Run("includes", func(t *testing.T) {
		headerPath := writeTempFile(t, "header.html", "<h1>{{title}}</h1>")
		code, stdout, _ := runCLI(t, "{{template:header}}body", CmdNameRender,
			"-t", "-", "-i", "header="+headerPath, "-d", "title: Home")

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "<h1>Home</h1>body", stdout)
	})

	t.Run("diagnostics on stderr", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "{{for:rows}}[{{v}}]{{/for:rows}}", CmdNameRender,
			"-t", "-", "-d", `{"rows": [{"v": 1}, 2]}`)

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "[1]", stdout)
		assert.Contains(t, stderr, `"rows" element 1 is scalar`)
	})

	t.Run("profile report", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameRender, "-t", templatePath, "-d", testDataJSON, "--profile")

		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stderr, ProfileColumnLabel)
		assert.Contains(t, stderr, "Singles")
	})
}

func TestRender_Errors(t *testing.T) {
	templatePath := writeTempFile(t, "template.html", testTemplateContent)

	tests := []struct {
		name     string
		stdin    string
		args     []string
		exitCode int
		stderr   string
	}{
		{
			name:     "missing template flag",
			args:     []string{CmdNameRender},
			exitCode: ExitCodeUsageError,
			stderr:   ErrMsgMissingTemplate,
		},
		{
			name:     "template file not found",
			args:     []string{CmdNameRender, "-t", filepath.Join(t.TempDir(), "nope.html")},
			exitCode: ExitCodeInputError,
			stderr:   ErrMsgReadFileFailed,
		},
		{
			name:     "invalid data",
			args:     []string{CmdNameRender, "-t", templatePath, "-d", "{not valid"},
			exitCode: ExitCodeInputError,
			stderr:   ErrMsgInvalidData,
		},
		{
			name:     "malformed include",
			args:     []string{CmdNameRender, "-t", templatePath, "-i", "header"},
			exitCode: ExitCodeUsageError,
			stderr:   ErrMsgInvalidInclude,
		},
		{
			name:     "array substitution",
			stdin:    "{{tags}}",
			args:     []string{CmdNameRender, "-t", "-", "-d", `{"tags": ["a", "b"]}`},
			exitCode: ExitCodeRenderError,
			stderr:   ErrMsgRenderFailed,
		},
		{
			name:     "unknown template",
			stdin:    "{{template:missing}}",
			args:     []string{CmdNameRender, "-t", "-"},
			exitCode: ExitCodeRenderError,
			stderr:   ErrMsgRenderFailed,
		},
		{
			name:     "manifest without store",
			args:     []string{CmdNameRender, "-t", templatePath, "--manifest", templatePath},
			exitCode: ExitCodeUsageError,
			stderr:   ErrMsgManifestNoStorage,
		},
		{
			name:     "store without dsn",
			args:     []string{CmdNameRender, "-t", templatePath, "--store", "sqlite"},
			exitCode: ExitCodeUsageError,
			stderr:   ErrMsgMissingDSN,
		},
		{
			name:     "unknown store driver",
			args:     []string{CmdNameRender, "-t", templatePath, "--store", "nosuch", "--dsn", "x"},
			exitCode: ExitCodeStorageError,
			stderr:   ErrMsgOpenStorageFailed,
		},
		{
			name:     "invalid log level",
			args:     []string{CmdNameRender, "-t", templatePath, "--log-level", "loud"},
			exitCode: ExitCodeUsageError,
			stderr:   ErrMsgInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.stdin, tt.args...)

			assert.Equal(t, tt.exitCode, code)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

// ==================== store ====================

func TestStore_RoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "templates.db")
	store := func(args ...string) []string {
		return append([]string{CmdNameStore, "--store", "sqlite", "--dsn", dsn}, args...)
	}

	code, stdout, stderr := runCLI(t, "<h1>{{title}}</h1>", store(CmdNamePut, "site/header.html", "-")...)
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "saved site/header.html v1\n", stdout)

	footerPath := writeTempFile(t, "footer.html", "<footer/>")
	code, stdout, _ = runCLI(t, "", store(CmdNamePut, "site/footer.html", footerPath)...)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "saved site/footer.html v1\n", stdout)

	code, stdout, _ = runCLI(t, "<h1>{{title}}!</h1>", store(CmdNamePut, "site/header.html", "-")...)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "saved site/header.html v2\n", stdout)

	t.Run("get", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", store(CmdNameGet, "site/header.html")...)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "<h1>{{title}}!</h1>", stdout)
	})

	t.Run("get missing", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", store(CmdNameGet, "nope")...)
		assert.Equal(t, ExitCodeStorageError, code)
		assert.Contains(t, stderr, ErrMsgStorageFailed)
	})

	t.Run("list text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", store(CmdNameList)...)
		require.Equal(t, ExitCodeSuccess, code)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "site/footer.html\tv1\t"))
		assert.True(t, strings.HasPrefix(lines[1], "site/header.html\tv2\t"))
	})

	t.Run("list json with prefix", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", store(CmdNameList, "--prefix", "site/h", "-F", OutputFormatJSON)...)
		require.Equal(t, ExitCodeSuccess, code)

		var rows []storedTemplateRow
		require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "site/header.html", rows[0].Name)
		assert.Equal(t, 2, rows[0].Version)
		assert.NotEmpty(t, rows[0].ID)
	})

	t.Run("list invalid format", func(t *testing.T) {
		code, _, _ := runCLI(t, "", store(CmdNameList, "-F", "xml")...)
		assert.Equal(t, ExitCodeUsageError, code)
	})

	t.Run("render with manifest", func(t *testing.T) {
		manifestPath := writeTempFile(t, "manifest.yaml", "- header.html\n- footer.html\n")
		code, stdout, stderr := runCLI(t, "{{template:header}}{{template:footer}}", CmdNameRender,
			"-t", "-", "-d", "title: Home",
			"--store", "sqlite", "--dsn", dsn,
			"--manifest", manifestPath, "--manifest-prefix", "site")

		require.Equal(t, ExitCodeSuccess, code, stderr)
		assert.Equal(t, "<h1>Home!</h1><footer/>", stdout)
	})

	t.Run("delete", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", store(CmdNameDelete, "site/footer.html")...)
		require.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "deleted site/footer.html\n", stdout)

		code, _, _ = runCLI(t, "", store(CmdNameDelete, "site/footer.html")...)
		assert.Equal(t, ExitCodeStorageError, code)
	})
}

func TestStore_Usage(t *testing.T) {
	t.Run("put needs two args", func(t *testing.T) {
		code, _, _ := runCLI(t, "", CmdNameStore, "--store", "memory", CmdNamePut, "only-name")
		assert.Equal(t, ExitCodeUsageError, code)
	})

	t.Run("sqlite needs dsn", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameStore, CmdNameList)
		assert.Equal(t, ExitCodeUsageError, code)
		assert.Contains(t, stderr, ErrMsgMissingDSN)
	})

	t.Run("memory store is per process", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "x", CmdNameStore, "--store", "memory", CmdNamePut, "a", "-")
		require.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "saved a v1\n", stdout)

		code, stdout, _ = runCLI(t, "", CmdNameStore, "--store", "memory", CmdNameList)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Empty(t, stdout)
	})
}

func TestLoadData(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		data, err := loadData("", "")
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("null document", func(t *testing.T) {
		data, err := loadData("null", "")
		require.NoError(t, err)
		assert.NotNil(t, data)
	})

	t.Run("file wins over inline", func(t *testing.T) {
		path := writeTempFile(t, "data.json", testDataJSON)
		data, err := loadData("user: ignored", path)
		require.NoError(t, err)
		assert.Equal(t, "Alice", data["user"])
	})

	t.Run("scalar document rejected", func(t *testing.T) {
		_, err := loadData("just a string", "")
		assert.Error(t, err)
	})
}
