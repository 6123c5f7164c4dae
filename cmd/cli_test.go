package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/habedi/voxbridge/client"
	"github.com/habedi/voxbridge/db"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateRootCmd checks that createRootCmd returns a root command
// with the expected use string, subcommands, and a replaced help command.
func TestCreateRootCmd(t *testing.T) {
	rootCmd := createRootCmd()
	assert.Equal(t, "voxbridge", rootCmd.Use)

	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEqual(t, "help", cmd.Use, "expected help command to be replaced")
	}
	for _, want := range []string{"login", "logout", "status", "record", "profile", "posts", "comments", "workspace", "history", "recordings", "languages", "health", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("api-url"))
}

// TestInitializeAndCloseDatabase sets a temporary DB path and opens and
// closes the database.
func TestInitializeAndCloseDatabase(t *testing.T) {
	db.Path = filepath.Join(t.TempDir(), "voxbridge.db")
	require.NoError(t, initializeDatabase())
	require.NoError(t, closeDatabase())
}

func TestClassify(t *testing.T) {
	typed := clierr.New(clierr.Validation, "bad", nil)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"typed passes through", typed, 2},
		{"logged out", fmt.Errorf("call: %w", client.ErrRefreshFailed), 4},
		{"unauthorized", &client.HTTPError{StatusCode: 401}, 4},
		{"not found", fmt.Errorf("get: %w", &client.HTTPError{StatusCode: 404}), 3},
		{"deadline", context.DeadlineExceeded, 5},
		{"cancelled", context.Canceled, 1},
		{"other", errors.New("boom"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clierr.ExitCode(classify(tc.err)))
		})
	}
}

func TestInvalidConfigIsValidationError(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "", "--api-url", "ftp://nope", "health")
	require.Error(t, err)
	assert.Equal(t, 2, clierr.ExitCode(err))
}

// TestExecuteFailure runs a subprocess where the root command's RunE is
// overridden to return a typed error and checks the exit status.
func TestExecuteFailure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_FAILURE") == "1" {
		rootCmd := createRootCmd()
		rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
			return clierr.New(clierr.NotFound, "dummy failure", nil)
		}
		if err := rootCmd.Execute(); err != nil {
			os.Exit(clierr.ExitCode(err))
		}
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecuteFailure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_FAILURE=1")
	err := cmd.Run()
	var exitError *exec.ExitError
	require.ErrorAs(t, err, &exitError)
	assert.Equal(t, 3, exitError.ExitCode())
}
